package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ashwinyue/assessly/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, "test", Options{IdleTimeout: 600 * time.Second, HistoryCap: 3}), mr
}

func TestRedisStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	st, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, st)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Save(ctx, &model.ConversationState{
		UserID:    "u1",
		Step:      model.StepAwaitingMessage,
		Name:      "Asha",
		Email:     "asha@example.com",
		UpdatedAt: now,
	}))

	assert.True(t, mr.Exists("test:state:u1"))
	assert.Equal(t, 600*time.Second, mr.TTL("test:state:u1"))

	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StepAwaitingMessage, got.Step)
	assert.Equal(t, "asha@example.com", got.Email)
	assert.True(t, got.UpdatedAt.Equal(now))
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Save(ctx, &model.ConversationState{UserID: "u1", Step: model.StepAwaitingName}))
	mr.FastForward(601 * time.Second)

	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_History(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		require.NoError(t, store.AppendTurn(ctx, "u1", model.Turn{User: q, Bot: "a"}))
	}

	turns, err := store.History(ctx, "u1", 5)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "q2", turns[0].User)
	assert.Equal(t, "q4", turns[2].User)

	turns, err = store.History(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q3", turns[0].User)

	assert.Equal(t, 600*time.Second, mr.TTL("test:history:u1"))
}

func TestRedisStore_DeleteAndReset(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Save(ctx, &model.ConversationState{UserID: "u1", Step: model.StepAwaitingName}))
	require.NoError(t, store.AppendTurn(ctx, "u1", model.Turn{User: "hi", Bot: "hello"}))

	require.NoError(t, store.Delete(ctx, "u1"))
	assert.False(t, mr.Exists("test:state:u1"))
	assert.True(t, mr.Exists("test:history:u1"))

	require.NoError(t, store.Reset(ctx, "u1"))
	assert.False(t, mr.Exists("test:history:u1"))
}

func TestRedisStore_Take(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	ok, err := store.Take(ctx, "u1", model.StepAwaitingMessage)
	require.NoError(t, err)
	assert.False(t, ok, "nothing to take")

	require.NoError(t, store.Save(ctx, &model.ConversationState{UserID: "u1", Step: model.StepAwaitingMessage}))

	ok, err = store.Take(ctx, "u1", model.StepAwaitingEmail)
	require.NoError(t, err)
	assert.False(t, ok, "step mismatch")
	assert.True(t, mr.Exists("test:state:u1"))

	ok, err = store.Take(ctx, "u1", model.StepAwaitingMessage)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists("test:state:u1"))

	ok, err = store.Take(ctx, "u1", model.StepAwaitingMessage)
	require.NoError(t, err)
	assert.False(t, ok, "second take must not claim again")
}

func TestRedisStore_LoadError(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewRedisStore(client, "test", Options{})
	mr.Close()

	_, err = store.Load(ctx, "u1")
	assert.Error(t, err)
}
