package utils

import (
	"regexp"

	"aegis-service/internal/pkg/constvars"

	"github.com/go-playground/validator/v10"
)

var (
	validate           *validator.Validate
	verificationCodeRe = regexp.MustCompile(constvars.RegexVerificationCode)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("outcome", validateOutcome)
	validate.RegisterValidation("verification_code", validateVerificationCode)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateQuestionType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "boolean" || value == "single_choice" || value == "numeric" || value == "diagnostic_test"
}

func validateOutcome(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "eligible" || value == "consult_professional" || value == "ineligible"
}

// validateVerificationCode runs after normalization, so the regexp sees
// the uppercase hyphenated form.
func validateVerificationCode(fl validator.FieldLevel) bool {
	return verificationCodeRe.MatchString(fl.Field().String())
}
