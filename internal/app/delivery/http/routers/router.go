package routers

import (
	"time"

	"aegis-service/internal/app/config"
	"aegis-service/internal/app/delivery/http/controllers"
	"aegis-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(
	router *chi.Mux,
	internalConfig *config.InternalConfig,
	mw *middlewares.Middlewares,
	redemptionLimiter *middlewares.BruteForceLimiter,
	screeningController *controllers.ScreeningController,
	verificationCodeController *controllers.VerificationCodeController,
	programController *controllers.ProgramController,
	questionnaireController *controllers.QuestionnaireController,
	partnerController *controllers.PartnerController,
) {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Tenant-ID", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	router.Use(cors.Handler(corsOptions))

	// Rate limiting middleware using httprate
	rateLimiter := httprate.LimitByIP(internalConfig.App.MaxRequests, time.Second)
	router.Use(rateLimiter)

	router.Use(mw.RequestIDMiddleware)
	router.Use(mw.Logging(mw.Log))
	router.Use(mw.ErrorHandler)
	router.Use(mw.BodyLimit)

	router.Handle("/metrics", promhttp.Handler())

	router.Route(internalConfig.App.EndpointPrefix, func(r chi.Router) {
		r.Route("/programs", func(r chi.Router) {
			attachProgramRoutes(r, mw, programController, questionnaireController, screeningController)
		})

		r.Route("/screenings", func(r chi.Router) {
			attachScreeningRoutes(r, mw, screeningController, verificationCodeController)
		})

		r.Route("/partner", func(r chi.Router) {
			attachPartnerCodeRoutes(r, mw, redemptionLimiter, verificationCodeController)
		})

		r.Route("/partners", func(r chi.Router) {
			attachPartnerAdminRoutes(r, mw, partnerController)
		})

		r.Route("/questionnaire-versions", func(r chi.Router) {
			attachQuestionnaireVersionRoutes(r, mw, questionnaireController)
		})
	})
}
