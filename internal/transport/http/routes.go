package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "research-api/docs"
)

type RouterConfig struct {
	APIKey         string
	AllowedOrigins []string
	Logger         zerolog.Logger
}

func Routes(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// after RequestID
	r.Use(RequestLogger(cfg.Logger))

	r.Use(cors.Handler(corsOptions(cfg.AllowedOrigins)))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/", h.Root)

	r.Route("/research", func(r chi.Router) {
		r.Use(APIKey(cfg.APIKey))
		r.Post("/", h.CreateResearch)
		r.Get("/{id}", h.GetResearch)
		r.Get("/{id}/report", h.GetReport)
		r.Get("/{id}/trends", h.GetTrends)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}

// corsOptions allows every origin when none are configured. Credentials are
// only allowed for an explicit origin list, browsers reject them with "*".
func corsOptions(origins []string) cors.Options {
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", HeaderAPIKey, HeaderAPIKeyAlt},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}
