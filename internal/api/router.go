package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/productpraat/productpraat/internal/database"
)

// NewRouter wires the HTTP surface: automation control, admin endpoints,
// the public article feed and the click-tracked affiliate redirect.
func NewRouter(handlers *Handlers, relay *database.Relay, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:*", "https://localhost:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(relay))

	r.Route("/api", func(r chi.Router) {
		r.Route("/automation", func(r chi.Router) {
			r.Post("/discover", handlers.Discover)
			r.Post("/generate", handlers.Generate)
			r.Get("/runs", handlers.ListRuns)
			r.Get("/runs/{runID}", handlers.GetRun)
			r.Get("/config", handlers.GetConfig)
			r.Put("/config", handlers.PutConfig)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/products/import", handlers.ImportProducts)
			r.Get("/products", handlers.ListProducts)
			r.Post("/articles/{articleID}/publish", handlers.PublishArticle)
			r.Get("/stats", handlers.GetStats)
		})

		r.Get("/articles", handlers.ListArticles)
		r.Get("/articles/{articleID}", handlers.GetArticle)
	})

	r.Get("/go/{linkID}", handlers.Redirect)

	return r
}

func healthHandler(relay *database.Relay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var pendingCount, deadLetterCount int64
		if relay != nil {
			pendingCount, _ = relay.GetPendingCount(context.Background())
			deadLetterCount, _ = relay.GetDeadLetterCount(context.Background())
		}

		health := map[string]interface{}{
			"status": "ok",
			"outbox": map[string]interface{}{
				"pending":     pendingCount,
				"dead_letter": deadLetterCount,
			},
		}

		status := http.StatusOK
		if pendingCount > 1000 {
			health["status"] = "warning"
			health["message"] = "high number of pending outbox events"
		}
		if deadLetterCount > 100 {
			health["status"] = "error"
			health["message"] = "high number of dead letter events"
			status = http.StatusServiceUnavailable
		}

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(health)
	}
}
