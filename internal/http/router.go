package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/GitwithRaj/talktocart/internal/middleware"
)

type RouterOptions struct {
	Logger           *zap.Logger
	CORSAllowOrigins []string
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(origins))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.Catalog)

		r.Route("/cart/{userId}", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ResetCart)
			r.Post("/commands", h.Command)
			r.Post("/items", h.AdjustItem)
			r.Get("/invoice", h.Invoice)
		})
	})

	return r
}
