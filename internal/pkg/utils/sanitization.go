package utils

import (
	"strings"

	"aegis-service/internal/pkg/dto/requests"
)

func cleanWhiteSpaceFromEachStringOfAnArray(input []string) []string {
	sanitizedArray := make([]string, len(input))
	for i, v := range input {
		sanitizedArray[i] = strings.TrimSpace(v)
	}
	return sanitizedArray
}

func SanitizeCreateProgramRequest(input *requests.CreateProgram) {
	input.Name = strings.TrimSpace(input.Name)
	input.DrugName = strings.TrimSpace(input.DrugName)
	input.Description = strings.TrimSpace(input.Description)
}

func SanitizeActivateQuestionnaireVersionRequest(input *requests.ActivateQuestionnaireVersion) {
	input.VersionID = strings.TrimSpace(input.VersionID)
}

func SanitizePublishQuestionnaireVersionRequest(input *requests.PublishQuestionnaireVersion) {
	for i := range input.Questions {
		input.Questions[i].ID = strings.TrimSpace(input.Questions[i].ID)
		input.Questions[i].Text = strings.TrimSpace(input.Questions[i].Text)
		input.Questions[i].Options = cleanWhiteSpaceFromEachStringOfAnArray(input.Questions[i].Options)
	}
	for i := range input.LegacyRules {
		input.LegacyRules[i].Expression = strings.TrimSpace(input.LegacyRules[i].Expression)
		input.LegacyRules[i].Message = strings.TrimSpace(input.LegacyRules[i].Message)
	}
	input.LegacyDefaultOutcome = strings.TrimSpace(input.LegacyDefaultOutcome)
}

// SanitizeSubmitAnswersRequest trims answer keys and string values only.
// Typed interpretation of the values belongs to the eligibility package.
func SanitizeSubmitAnswersRequest(input *requests.SubmitAnswers) {
	if input.Answers == nil {
		return
	}
	cleaned := make(map[string]interface{}, len(input.Answers))
	for key, value := range input.Answers {
		if s, ok := value.(string); ok {
			value = strings.TrimSpace(s)
		}
		cleaned[strings.TrimSpace(key)] = value
	}
	input.Answers = cleaned
}

func SanitizeIssueCodeRequest(input *requests.IssueCode) {
	input.CodeType = strings.TrimSpace(strings.ToLower(input.CodeType))
}

func SanitizeRedeemCodeRequest(input *requests.RedeemCode) {
	input.Code = NormalizeVerificationCode(input.Code)
	input.TransactionID = strings.TrimSpace(input.TransactionID)
}

func SanitizeCheckCodeRequest(input *requests.CheckCode) {
	input.Code = NormalizeVerificationCode(input.Code)
}

func SanitizeCreatePartnerRequest(input *requests.CreatePartner) {
	input.Name = strings.TrimSpace(input.Name)
	input.Role = strings.TrimSpace(strings.ToLower(input.Role))
}

func SanitizeUpdatePartnerStatusRequest(input *requests.UpdatePartnerStatus) {
	input.Status = strings.TrimSpace(strings.ToLower(input.Status))
}
