package routers

import (
	"aegis-service/internal/app/delivery/http/controllers"
	"aegis-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachQuestionnaireVersionRoutes(router chi.Router, mw *middlewares.Middlewares, questionnaireController *controllers.QuestionnaireController) {
	router.With(mw.APIKeyAuth, mw.RequireAdminRole).Get("/{version_id}", questionnaireController.GetQuestionnaireVersionByID)
}
