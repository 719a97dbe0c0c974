package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/metrics"
)

// Deps are the services the HTTP layer exposes.
type Deps struct {
	Grading     *app.GradingService
	Admin       *app.AdminService
	Auth        *app.AuthService
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	CORSOrigins []string
	// LoginRate bounds login attempts per client IP per minute; zero means 10.
	LoginRate int
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	loginRate := d.LoginRate
	if loginRate <= 0 {
		loginRate = 10
	}

	h := &handlers{grading: d.Grading, admin: d.Admin, auth: d.Auth, logger: d.Logger}
	ws := NewWSHandler(d.Grading, d.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(requestLogger(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	r.With(newIPLimiter(loginRate, time.Minute).middleware).Post("/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(authenticate(d.Auth))

		r.Get("/results/{id}", h.result)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(domain.RoleStudent))
			r.Get("/me/history", h.history)
			r.Post("/quizzes/{id}/attempts", h.startAttempt)
			r.Post("/quizzes/{id}/submit", h.submit)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole(domain.RoleAdmin))
			r.Get("/quizzes", h.listQuizzes)
			r.Post("/quizzes", h.uploadQuiz)
			r.Delete("/quizzes", h.deleteAllQuizzes)
			r.Get("/quizzes/{id}", h.previewQuiz)
			r.Delete("/quizzes/{id}", h.deleteQuiz)
			r.Get("/students", h.listStudents)
			r.Post("/students", h.createStudent)
			r.Put("/students/{id}", h.updateStudent)
			r.Delete("/students/{id}", h.deleteStudent)
			r.Get("/scores", h.scores)
			r.Get("/submissions/{id}", h.submission)
			r.Delete("/submissions", h.deleteAllResults)
			r.Get("/settings", h.settings)
			r.Put("/settings", h.updateSettings)
			r.Get("/feed", ws.ServeWS)
		})
	})
	return r
}
