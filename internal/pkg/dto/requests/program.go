package requests

type CreateProgram struct {
	Name        string `json:"name" validate:"required,min=3,max=120"`
	DrugName    string `json:"drugName" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

type ActivateQuestionnaireVersion struct {
	VersionID string `json:"versionId" validate:"required,uuid"`
}
