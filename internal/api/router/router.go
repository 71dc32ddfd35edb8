package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/acegrowth/ace-chatbot/internal/http/middleware"
	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/webchat"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Version            string
	Chat               *webchat.Handler
	LeadsHandler       *leads.Handler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// RateLimiter guards the visitor-facing chat endpoints. Nil disables it.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger, "/health", "/metrics"))

	r.Get("/health", healthHandler(cfg.Version))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Chat != nil {
		r.Route("/chat", func(chat chi.Router) {
			chat.Use(httpmiddleware.CORS(httpmiddleware.CORSOptions{Origins: cfg.CORSAllowedOrigins}))

			// Static and read-only endpoints can be compressed; the
			// WebSocket upgrade must see the raw connection.
			chat.Group(func(static chi.Router) {
				static.Use(middleware.Compress(5))
				static.Get("/widget.js", cfg.Chat.HandleWidgetJS)
				static.Get("/config", cfg.Chat.HandleConfig)
				static.Get("/history", cfg.Chat.HandleHistory)
			})

			chat.Group(func(live chi.Router) {
				live.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
				live.Get("/ws", cfg.Chat.HandleWebSocket)
				live.Post("/message", cfg.Chat.HandleMessage)
				live.Post("/action", cfg.Chat.HandleAction)
			})
		})
	}

	if cfg.LeadsHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads", cfg.LeadsHandler.ListLeads)
			admin.Delete("/leads", cfg.LeadsHandler.ClearLeads)
		})
	}

	return r
}

func healthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": version,
		})
	}
}
