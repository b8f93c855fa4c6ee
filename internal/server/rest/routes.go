package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handler builds the chi router with all routes and middleware.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.corsMiddleware())
	r.Use(s.limitBody)
	r.Use(s.loadSession)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{"route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{"method not allowed"})
	})

	r.Get("/", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", s.handleRegister)
		r.Post("/signin", s.handleSignin)
		r.Post("/logout", s.handleLogout)
		r.Get("/me", s.handleMe)

		r.Route("/fingerprint", func(r chi.Router) {
			r.Post("/insert", s.handleRegister)
			r.Get("/retrieve/{pilotid}", s.handleRetrieve)
			r.Delete("/delete/{pilotid}", s.handleDelete)
		})
	})

	return r
}

func (s *HTTPServer) corsMiddleware() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "HEAD", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	origins := s.corsOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		opts.AllowOriginFunc = func(_ *http.Request, _ string) bool {
			return true
		}
	} else {
		opts.AllowedOrigins = origins
	}

	return cors.Handler(opts)
}
