// Package tenant carries the validated tenant identity through a unit of
// work. A Context can only be built through Bind, so holding one proves the
// identifier already passed the format check. Repository operations take a
// Context as their first argument after ctx; there is no ambient or
// connection-scoped tenant state anywhere in the service.
package tenant

import (
	"aegis-service/internal/pkg/constvars"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidID rejects identifiers that are not canonical UUIDs. The check
// runs even though every query parameterizes the value; it is a
// defense-in-depth layer, not a substitute for parameterization.
var ErrInvalidID = errors.New("tenant id is not a canonical UUID")

var canonicalID = regexp.MustCompile(constvars.RegexUUIDCanonical)

// Context is an immutable tenant binding. The zero value is unusable:
// every accessor on it fails, so a forgotten Bind cannot silently widen a
// query to all tenants.
type Context struct {
	id string
}

// Bind validates the identifier and returns the binding. The syntax check
// accepts only the hyphenated canonical form; compact, braced and URN
// encodings fail even though uuid.Parse would take them.
func Bind(tenantID string) (Context, error) {
	if !canonicalID.MatchString(tenantID) {
		return Context{}, fmt.Errorf("%w: %q", ErrInvalidID, tenantID)
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		return Context{}, fmt.Errorf("%w: %q", ErrInvalidID, tenantID)
	}
	return Context{id: strings.ToLower(tenantID)}, nil
}

// MustBind is for tests and fixtures only.
func MustBind(tenantID string) Context {
	tc, err := Bind(tenantID)
	if err != nil {
		panic(err)
	}
	return tc
}

// ID returns the canonical lowercase identifier.
func (c Context) ID() string {
	return c.id
}

// IsZero reports whether the context was never bound.
func (c Context) IsZero() bool {
	return c.id == ""
}

// WithContext attaches the binding to a request context.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, constvars.CONTEXT_TENANT_KEY, tc)
}

// FromContext recovers the binding placed by WithContext. The second
// return is false when no binding was attached or the attached value is
// the zero Context.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(constvars.CONTEXT_TENANT_KEY).(Context)
	if !ok || tc.IsZero() {
		return Context{}, false
	}
	return tc, true
}
