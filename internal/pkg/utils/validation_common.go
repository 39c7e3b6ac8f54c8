package utils

import (
	"errors"

	"github.com/google/uuid"
)

// ValidateUrlParamID checks that a path parameter is a well-formed UUID.
// Program, version, session and partner identifiers all share this format,
// so malformed values are rejected before any store is touched.
func ValidateUrlParamID(param string) error {
	if param == "" {
		return errors.New("parameter is missing from url path")
	}
	if _, err := uuid.Parse(param); err != nil {
		return errors.New("parameter is not a valid identifier")
	}
	return nil
}
