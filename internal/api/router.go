package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/noit/research-api/internal/api/handlers"
	"github.com/noit/research-api/internal/api/middleware"
	"github.com/noit/research-api/internal/config"
	"github.com/noit/research-api/internal/logging"
	"github.com/noit/research-api/internal/service"
)

func NewRouter(services *service.Services, cfg *config.Config, log logging.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.FrontendOrigins,
		MaxAgeSeconds:  86400,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.FrontendOrigins)
	authHandler := handlers.NewAuthHandler(services.Auth, log)
	queryHandler := handlers.NewQueryHandler(services.Query, log)
	authLimiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute)

	routes := func(r chi.Router) {
		r.Get("/health", healthHandler.Check)

		// Public auth routes
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Sessions, log))
			r.Post("/query", queryHandler.Ask)
			r.Get("/history", queryHandler.History)
		})
	}

	routes(r)
	r.Route("/api/v1", routes)

	return r
}
