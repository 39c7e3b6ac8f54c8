package routers

import (
	"aegis-service/internal/app/delivery/http/controllers"
	"aegis-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

// The redemption surface carries the brute-force limiter on top of API-key
// auth: a stolen key must not turn into a code-space oracle.
func attachPartnerCodeRoutes(
	router chi.Router,
	mw *middlewares.Middlewares,
	redemptionLimiter *middlewares.BruteForceLimiter,
	verificationCodeController *controllers.VerificationCodeController,
) {
	guarded := router.With(mw.APIKeyAuth, redemptionLimiter.Limit)

	guarded.Post("/codes/redeem", verificationCodeController.RedeemCode)
	guarded.Post("/codes/check", verificationCodeController.CheckCode)
}
