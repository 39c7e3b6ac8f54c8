package constvars

// Verification code composition. The alphabet excludes 0, 1, I and O so
// printed codes survive being read back over the phone.
const (
	VerificationCodeAlphabet    = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	VerificationCodePrefix      = "AEGIS"
	VerificationCodeGroupCount  = 3
	VerificationCodeGroupLength = 4
	VerificationCodeSeparator   = "-"

	VerificationCodeMaxGenerationAttempts = 5
)
