package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	mw "github.com/lorrc/ticket-desk/internal/adapters/primary/http/middleware"
)

// RouterConfig carries the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	AllowedOrigins []string
	// StaticDir is served at the root when set.
	StaticDir string
	// RateLimiter guards /api when non-nil.
	RateLimiter *mw.RateLimiter
	Logger      *slog.Logger
}

// Handlers groups the primary adapters mounted by NewRouter.
type Handlers struct {
	Ticket       *TicketHandler
	Notification *NotificationHandler
	Health       *HealthHandler
	WebSocket    *WebSocketHandler
}

// NewRouter assembles the middleware chain and every route.
func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(cfg.Logger))
	r.Use(mw.RecoveryLogger(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders: []string{mw.RequestIDHeader},
		MaxAge:         300,
	}))

	// Health check endpoints (standard probe paths)
	h.Health.RegisterRoutes(r)

	r.Route("/api", func(r chi.Router) {
		r.NotFound(NewErrorHandler(cfg.Logger).NotFound)

		if h.WebSocket != nil {
			r.Get("/ws", h.WebSocket.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Middleware)
			}
			h.Ticket.RegisterRoutes(r)
			h.Notification.RegisterRoutes(r)
		})
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
