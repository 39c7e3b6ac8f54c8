package requests

type CreatePartner struct {
	Name string `json:"name" validate:"required,min=3,max=120"`
	Role string `json:"role" validate:"required,oneof=partner admin"`
}

type UpdatePartnerStatus struct {
	Status string `json:"status" validate:"required,oneof=enabled disabled"`
}
