package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poradna-dev/poradna/backend/internal/handler"
	"github.com/poradna-dev/poradna/backend/internal/setup"
	"github.com/poradna-dev/poradna/shared/metrics"
	mw "github.com/poradna-dev/poradna/shared/middleware"
	rl "github.com/poradna-dev/poradna/shared/middleware/ratelimiter"
)

// Submission limits per user. Admins are exempt.
const (
	questionsPerMinute = 3
	answersPerMinute   = 10
	editsPerMinute     = 20
	limiterExpiration  = time.Hour
)

// New creates the chi router with all the routes.
// A limiter passed to Use limits all endpoints of that group combined.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeaders(deps.Config.Public.SecureCookies))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())
	if deps.Media != nil {
		r.Get("/media/*", handler.Media(deps.Media))
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(mw.RateLimit(rl.New(20, 40, limiterExpiration), mw.GetIP))

		// Public routes
		v1.Get("/categories", h.ListCategories)
		v1.Get("/questions", h.ListQuestions)
		v1.Get("/questions/{question}", h.GetQuestion)

		// Logged-in user routes
		v1.Group(func(user chi.Router) {
			user.Use(authMw.NeedAuth())

			user.With(mw.RateLimit(rl.PerMinute(questionsPerMinute, limiterExpiration), mw.GetUserIDFromContext)).
				Post("/questions", h.CreateQuestion)
			user.With(mw.RateLimit(rl.PerMinute(answersPerMinute, limiterExpiration), mw.GetUserIDFromContext)).
				Post("/questions/{question}/answers", h.CreateAnswer)

			edits := mw.RateLimit(rl.PerMinute(editsPerMinute, limiterExpiration), mw.GetUserIDFromContext)
			user.With(edits).Patch("/questions/{question}", h.UpdateQuestion)
			user.With(edits).Put("/questions/{question}/answers/{answer}", h.UpdateAnswer)

			user.Get("/me", h.GetProfile)
			user.With(edits).Patch("/me", h.UpdateProfile)
		})

		// Admin routes
		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(authMw.AdminOnly())

			admin.Delete("/questions/{question}", h.DeleteQuestion)
			admin.Delete("/questions/{question}/answers/{answer}", h.DeleteAnswer)

			admin.Post("/categories", h.CreateCategory)
			admin.Put("/categories/{category}", h.RenameCategory)
			admin.Delete("/categories/{category}", h.DeleteCategory)

			admin.Get("/users", h.ListUsers)
			admin.Put("/users/{user}/role", h.SetUserRole)
			admin.Delete("/users/{user}", h.DeleteUser)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	return r
}
