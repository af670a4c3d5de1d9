// Package router assembles the HTTP routes of the auth server.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/sbilibin2017/localbite/internal/handlers"
	"github.com/sbilibin2017/localbite/internal/middlewares"
)

// AuthService is the part of the auth service the routes need.
type AuthService interface {
	handlers.Registerer
	handlers.Loginer
}

// Config carries everything New needs to mount the routes.
type Config struct {
	Auth           AuthService
	Store          handlers.Pinger
	Tokener        middlewares.Tokener
	Log            *zap.SugaredLogger
	AllowedOrigins []string
	SwaggerURL     string
}

// New returns the root handler. Every API route lives under /api.
func New(cfg Config) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := chi.NewRouter()
	r.Use(middlewares.LoggingMiddleware(log))
	r.Use(middlewares.RecovererMiddleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}).Handler)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/register", handlers.NewRegisterHandler(cfg.Auth))
		r.Post("/login", handlers.NewLoginHandler(cfg.Auth))
		r.Get("/test-db", handlers.NewHealthHandler(cfg.Store))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(cfg.Tokener))
			r.Get("/me", handlers.NewMeHandler())
		})
	})

	swaggerURL := cfg.SwaggerURL
	if swaggerURL == "" {
		swaggerURL = "/swagger/doc.json"
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	return r
}
