package service

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ashwinyue/assessly/internal/config"
	"github.com/ashwinyue/assessly/internal/service/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Contact.FilePath = filepath.Join(t.TempDir(), "contacts.csv")
	return cfg
}

func TestNewServices_MemoryAndFile(t *testing.T) {
	cfg := testConfig(t)

	svc, err := NewServices(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Run(ctx)

	assert.Empty(t, svc.Ping(ctx))

	for _, m := range []string{"talk to someone", "Asha", "asha@example.com", "+91 98765 43210"} {
		r := svc.Chat.Reply(ctx, "u1", m)
		require.Equal(t, chat.TypeBot, r.Type, "message %q: %s", m, r.Text)
	}

	records, err := svc.Contacts.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "asha@example.com", records[0].Email)

	data, err := os.ReadFile(cfg.Contact.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Name,Email,Message,Timestamp")
}

func TestNewServices_MissingAPIKeyFallsBack(t *testing.T) {
	cfg := testConfig(t)

	svc, err := NewServices(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	r := svc.Chat.Reply(context.Background(), "u1", "How do I run a structured interview?")
	assert.Equal(t, chat.TypeError, r.Type)
	assert.Contains(t, r.Text, "What are your working hours?")
}

func TestNewServices_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Chat.StateBackend = "redis"
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = mustPort(t, mr.Port())

	svc, err := NewServices(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	ctx := context.Background()
	errs := svc.Ping(ctx)
	require.Contains(t, errs, "redis")
	assert.NoError(t, errs["redis"])

	svc.Chat.Reply(ctx, "u1", "talk to someone")
	assert.True(t, mr.Exists("assessly:state:u1"))
	assert.True(t, mr.Exists("assessly:history:u1"))
}

func TestNewServices_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Chat.StateBackend = "redis"
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = mustPort(t, mr.Port())
	mr.Close()

	_, err := NewServices(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewServices_FAQFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Chat.FAQPath = filepath.Join(t.TempDir(), "faq.yaml")
	content := "- question: Do you offer a free trial\n  answer: Yes, 14 days.\n"
	require.NoError(t, os.WriteFile(cfg.Chat.FAQPath, []byte(content), 0o600))

	svc, err := NewServices(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	r := svc.Chat.Reply(context.Background(), "u1", "do you offer a free trial?")
	assert.Equal(t, "Yes, 14 days.", r.Text)
	assert.Len(t, svc.FAQ.Entries(), 1)
}

func mustPort(t *testing.T, p string) int {
	t.Helper()
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	return port
}

func TestOpenContacts_File(t *testing.T) {
	cfg := testConfig(t)

	store, closeFn, err := OpenContacts(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	records, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
