package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acegrowth/ace-chatbot/internal/api/router"
	"github.com/acegrowth/ace-chatbot/internal/app/bootstrap"
	"github.com/acegrowth/ace-chatbot/internal/chatbot"
	appconfig "github.com/acegrowth/ace-chatbot/internal/config"
	httpmiddleware "github.com/acegrowth/ace-chatbot/internal/http/middleware"
	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/notify"
	"github.com/acegrowth/ace-chatbot/internal/observability/metrics"
	"github.com/acegrowth/ace-chatbot/internal/webchat"
	"github.com/acegrowth/ace-chatbot/internal/widget"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting ace-chatbot API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"version", chatbot.Version,
	)

	app, err := buildApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go app.chat.RunJanitor(janitorCtx, time.Minute)

	// Create HTTP server. WriteTimeout stays zero so WebSocket sessions can
	// outlive a single request window.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopJanitor()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	app.close()

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type app struct {
	handler    http.Handler
	chat       *webchat.Handler
	widget     *chatbot.Widget
	dispatcher *notify.Dispatcher
	limiter    *httpmiddleware.RateLimiter
	closers    []func() error
}

// close drains pending notifications and releases connections.
func (a *app) close() {
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	for _, c := range a.closers {
		_ = c()
	}
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	metricsHandler, chatMetrics := setupMetrics()

	overrides, err := bootstrap.LoadWidgetOverrides(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
	}
	store := bootstrap.BuildLeadStore(redisClient, cfg, logger)

	// Notification targets depend on the resolved company name and webhook.
	resolved := overrides.Merge(widget.Defaults())
	a.dispatcher = bootstrap.BuildNotifier(ctx, cfg, resolved, chatbot.Version, chatMetrics, logger)
	sink := bootstrap.BuildCapture(store, a.dispatcher, chatMetrics, logger.WithComponent("capture"))

	a.widget = chatbot.New(store, sink,
		chatbot.WithTyping(cfg.TypingDelays),
		chatbot.WithMetrics(chatMetrics),
		chatbot.WithLogger(logger.WithComponent("chatbot")),
	)
	if _, err := a.widget.Initialize(overrides); err != nil {
		a.close()
		return nil, err
	}

	a.chat = webchat.NewHandler(a.widget, webchat.WidgetJS, logger.WithComponent("webchat"),
		webchat.WithIdleTimeout(cfg.SessionIdleTimeout),
	)

	if cfg.RateLimitRPS > 0 {
		a.limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin lead endpoints disabled")
	}

	a.handler = router.New(&router.Config{
		Logger:             logger,
		Version:            chatbot.Version,
		Chat:               a.chat,
		LeadsHandler:       leads.NewHandler(store, logger.WithComponent("leads")),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        a.limiter,
	})
	return a, nil
}

// setupMetrics registers the chat collectors on a private registry
// alongside the Go runtime and process collectors.
func setupMetrics() (http.Handler, *metrics.ChatMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	chatMetrics := metrics.NewChatMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), chatMetrics
}
