package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/acegrowth/ace-chatbot/internal/config"
	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/widget"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildLeadStore picks the Redis store when a client is available and
// falls back to process memory otherwise.
func BuildLeadStore(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) leads.Store {
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient == nil {
		logger.Info("lead store: in-memory")
		return leads.NewMemoryStore()
	}
	namespace := ""
	if cfg != nil {
		namespace = cfg.LeadsNamespace
	}
	store := leads.NewRedisStore(redisClient, namespace)
	logger.Info("lead store: redis", "key", store.Key())
	return store
}

// LoadWidgetOverrides reads the optional widget options file. WEBHOOK_URL
// from the environment wins over the file's webhookUrl.
func LoadWidgetOverrides(cfg *appconfig.Config) (widget.Overrides, error) {
	var overrides widget.Overrides
	if cfg == nil {
		return overrides, nil
	}
	if path := strings.TrimSpace(cfg.WidgetConfigPath); path != "" {
		loaded, err := widget.LoadOverrides(path)
		if err != nil {
			return overrides, err
		}
		overrides = loaded
	}
	if url := strings.TrimSpace(cfg.WebhookURL); url != "" {
		overrides.WebhookURL = &url
	}
	return overrides, nil
}
