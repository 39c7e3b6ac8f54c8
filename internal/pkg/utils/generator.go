package utils

import (
	"aegis-service/internal/pkg/constvars"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateRequestID() string {
	return constvars.REQUEST_ID_PREFIX + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenerateVerificationCode draws every character from crypto/rand over the
// restricted alphabet. The caller owns uniqueness, this function only owns
// format.
func GenerateVerificationCode() (string, error) {
	max := big.NewInt(int64(len(constvars.VerificationCodeAlphabet)))

	groups := make([]string, 0, constvars.VerificationCodeGroupCount+1)
	groups = append(groups, constvars.VerificationCodePrefix)
	for i := 0; i < constvars.VerificationCodeGroupCount; i++ {
		group := make([]byte, constvars.VerificationCodeGroupLength)
		for j := range group {
			num, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", err
			}
			group[j] = constvars.VerificationCodeAlphabet[num.Int64()]
		}
		groups = append(groups, string(group))
	}

	return strings.Join(groups, constvars.VerificationCodeSeparator), nil
}

// GenerateArchiveObjectName derives the object key from the completion
// time, not the upload time, so a redelivered archive job overwrites the
// same object instead of duplicating it.
func GenerateArchiveObjectName(tenantID, sessionID string, completedAt time.Time) string {
	timestamp := completedAt.UTC().Format("20060102_150405")
	return fmt.Sprintf("outcomes/%s/%s_%s.json", tenantID, sessionID, timestamp)
}

// GenerateAPIKeyCredential returns the two halves of a partner credential.
// The presented key is "<keyID>.<secret>"; keyID is stored plain for
// lookup, the secret only as a bcrypt hash.
func GenerateAPIKeyCredential() (keyID, secret string, err error) {
	const secretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const secretLength = 40

	keyID = "ak_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	max := big.NewInt(int64(len(secretAlphabet)))
	raw := make([]byte, secretLength)
	for i := range raw {
		num, randErr := rand.Int(rand.Reader, max)
		if randErr != nil {
			return "", "", randErr
		}
		raw[i] = secretAlphabet[num.Int64()]
	}

	return keyID, string(raw), nil
}
