package routers

import (
	"aegis-service/internal/app/delivery/http/controllers"
	"aegis-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachScreeningRoutes(
	router chi.Router,
	mw *middlewares.Middlewares,
	screeningController *controllers.ScreeningController,
	verificationCodeController *controllers.VerificationCodeController,
) {
	session := router.With(mw.SessionAuth)

	session.Post("/{session_id}/answers", screeningController.SubmitAnswers)
	session.Get("/{session_id}", screeningController.GetScreeningSession)
	session.Post("/{session_id}/codes", verificationCodeController.IssueCode)
}
