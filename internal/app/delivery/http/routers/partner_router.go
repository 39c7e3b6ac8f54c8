package routers

import (
	"aegis-service/internal/app/delivery/http/controllers"
	"aegis-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachPartnerAdminRoutes(router chi.Router, mw *middlewares.Middlewares, partnerController *controllers.PartnerController) {
	admin := router.With(mw.APIKeyAuth, mw.RequireAdminRole)

	admin.Post("/", partnerController.CreatePartner)
	admin.Get("/", partnerController.GetPartners)
	admin.Put("/{partner_id}/status", partnerController.UpdatePartnerStatus)
}
