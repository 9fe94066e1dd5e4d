// Package http wires the delivery layer: routes, middleware, and the
// swagger and metrics endpoints.
package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"gatekeeper/internal/delivery/http/controllers"
	"gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	eligibilityController *controllers.EligibilityController,
	participationController *controllers.ParticipationController,
	authController *controllers.AuthController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier, logger)

	// Eligibility and participation
	mux.HandleFunc("GET /events/{eventID}/eligibility", requireAuth(eligibilityController.CheckEligibility))
	mux.HandleFunc("POST /events/{eventID}/rsvp", requireAuth(participationController.RSVP))
	mux.HandleFunc("POST /events/{eventID}/tickets", requireAuth(participationController.PurchaseTicket))
	mux.HandleFunc("GET /events/{eventID}/participants", requireAuth(participationController.ListParticipants))

	// Auth
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Operational endpoints
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
