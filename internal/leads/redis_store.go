package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore persists leads as a Redis list of JSON documents.
type RedisStore struct {
	redis  *redis.Client
	key    string
	tracer trace.Tracer
}

// NewRedisStore returns a store under StorageKey, or StorageKey:namespace
// when a namespace is given. It returns nil when redisClient is nil.
func NewRedisStore(redisClient *redis.Client, namespace string) *RedisStore {
	if redisClient == nil {
		return nil
	}
	key := StorageKey
	if namespace != "" {
		key = StorageKey + ":" + namespace
	}
	return &RedisStore{
		redis:  redisClient,
		key:    key,
		tracer: otel.Tracer("acechatbot.internal.leads.redis"),
	}
}

// Key returns the Redis key the leads live under.
func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Append(ctx context.Context, lead Lead) error {
	if s == nil || s.redis == nil {
		return errors.New("leads: redis store not configured")
	}
	data, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("leads: marshal lead: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "leads.redis.append",
		trace.WithAttributes(attribute.String("lead.id", lead.ID)))
	defer span.End()

	if err := s.redis.RPush(ctx, s.key, data).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("leads: append: %w", err)
	}
	return nil
}

// List decodes each stored element, skipping any that fail to decode.
func (s *RedisStore) List(ctx context.Context) ([]Lead, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	ctx, span := s.tracer.Start(ctx, "leads.redis.list")
	defer span.End()

	raw, err := s.redis.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Lead{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("leads: list: %w", err)
	}

	out := make([]Lead, 0, len(raw))
	for _, item := range raw {
		var lead Lead
		if err := json.Unmarshal([]byte(item), &lead); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, lead)
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if s == nil || s.redis == nil {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "leads.redis.clear")
	defer span.End()

	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("leads: clear: %w", err)
	}
	return nil
}
