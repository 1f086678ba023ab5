package router

import (
	"net/http"

	"menu-advisor/internal/auth"
	"menu-advisor/internal/handler"
	"menu-advisor/internal/middleware"
	"menu-advisor/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	commandHandler *handler.CommandHandler,
	promoHandler *handler.PromoHandler,
	dashboardHandler *handler.DashboardHandler,
	counterHandler *handler.CounterHandler,
	readinessHandler *handler.ReadinessHandler,
	authn *auth.Authenticator,
	trustProxy bool,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Applied in order: RealIP -> RequestID -> Recovery -> Logging -> CORS -> Authenticate
	// Forwarding headers are client-controlled unless a proxy rewrites them.
	if trustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.Authenticate(authn, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", handler.HealthHandler)
	r.Get("/health/ready", readinessHandler.Ready)

	admins := middleware.RequireRoles(model.RoleAdmin)
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleRestaurantAdmin)

	r.Route("/commands", func(r chi.Router) {
		r.Post("/", commandHandler.Create)
		r.Post("/sendCode", commandHandler.SendCode)
		r.Post("/confirmCode", commandHandler.ConfirmCode)
		r.With(middleware.RequireAuth).Get("/", commandHandler.List)
		r.With(middleware.RequireAuth).Get("/count", commandHandler.Count)
		r.With(admins).Delete("/", commandHandler.DeleteMany)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", commandHandler.Get)
			r.With(middleware.RequireAuth).Put("/", commandHandler.Update)
			r.With(staff).Post("/validate", commandHandler.Validate)
			r.With(staff).Post("/revoke", commandHandler.Revoke)
			r.With(admins).Delete("/", commandHandler.Delete)
		})
	})

	r.Post("/verifyCodePromo", promoHandler.Verify)
	r.With(middleware.RequireAuth).Get("/dashboard", dashboardHandler.Get)

	r.Route("/counters/{name}", func(r chi.Router) {
		r.Use(admins)
		r.Get("/", counterHandler.Get)
		r.Post("/decrement", counterHandler.Decrement)
		r.Post("/reset", counterHandler.Reset)
	})

	return r
}
