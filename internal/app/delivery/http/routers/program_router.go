package routers

import (
	"aegis-service/internal/app/delivery/http/controllers"
	"aegis-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

// Program management is admin-only; the one exception is starting a
// screening, which is the public entry point and resolves its tenant from
// the X-Tenant-ID header instead of a credential.
func attachProgramRoutes(
	router chi.Router,
	mw *middlewares.Middlewares,
	programController *controllers.ProgramController,
	questionnaireController *controllers.QuestionnaireController,
	screeningController *controllers.ScreeningController,
) {
	admin := router.With(mw.APIKeyAuth, mw.RequireAdminRole)

	admin.Post("/", programController.CreateProgram)
	admin.Get("/", programController.GetPrograms)
	admin.Get("/{program_id}", programController.GetProgramByID)
	admin.Put("/{program_id}/active-version", programController.ActivateQuestionnaireVersion)

	admin.Post("/{program_id}/questionnaire-versions", questionnaireController.PublishQuestionnaireVersion)
	admin.Get("/{program_id}/questionnaire-versions", questionnaireController.GetQuestionnaireVersionsByProgram)

	router.With(mw.TenantHeader).Post("/{program_id}/screenings", screeningController.CreateScreeningSession)
}
