package utils

import (
	"aegis-service/internal/pkg/constvars"
	"strings"
)

// NormalizeVerificationCode folds user input into the stored form. Partners
// paste codes from PDFs and phone calls, so stray whitespace and lowercase
// are expected.
func NormalizeVerificationCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	code = strings.ReplaceAll(code, " ", "")
	return code
}

// MaskVerificationCode keeps the prefix and first group readable and hides
// the rest. Logs carry the masked form only.
func MaskVerificationCode(code string) string {
	parts := strings.Split(code, constvars.VerificationCodeSeparator)
	if len(parts) != constvars.VerificationCodeGroupCount+1 {
		return "****"
	}
	for i := 2; i < len(parts); i++ {
		parts[i] = strings.Repeat("*", len(parts[i]))
	}
	return strings.Join(parts, constvars.VerificationCodeSeparator)
}
