package leads

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisStore(t *testing.T) {
	_, client := setupTestRedis(t)
	exerciseStore(t, NewRedisStore(client, ""))
}

func TestRedisStore_Key(t *testing.T) {
	_, client := setupTestRedis(t)
	assert.Equal(t, "ace_chatbot_leads", NewRedisStore(client, "").Key())
	assert.Equal(t, "ace_chatbot_leads:acme", NewRedisStore(client, "acme").Key())
}

func TestRedisStore_NilClient(t *testing.T) {
	assert.Nil(t, NewRedisStore(nil, ""))
}

func TestRedisStore_SkipsUndecodableEntries(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, "")
	require.NoError(t, store.Append(context.Background(), sampleLead(t, "Good")))
	_, err := mr.Lpush(store.Key(), "garbage")
	require.NoError(t, err)

	all, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Good", all[0].Name)
}

func TestRedisStore_AppendFailsWhenServerDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, "")
	mr.Close()

	assert.Error(t, store.Append(context.Background(), sampleLead(t, "Lost")))
}
