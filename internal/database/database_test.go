package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/assessly/internal/config"
)

func TestPoolSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want pool
	}{
		{name: "defaults", want: pool{maxOpen: 10, maxIdle: 2, lifetime: 5 * time.Minute}},
		{
			name: "configured",
			cfg:  config.DatabaseConfig{MaxOpenConns: 20, MaxIdleConns: 5, MaxLifetime: 60},
			want: pool{maxOpen: 20, maxIdle: 5, lifetime: time.Minute},
		},
		{
			name: "idle capped by open",
			cfg:  config.DatabaseConfig{MaxOpenConns: 3, MaxIdleConns: 8},
			want: pool{maxOpen: 3, maxIdle: 3, lifetime: 5 * time.Minute},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, poolSettings(tt.cfg))
		})
	}
}

func TestGormLoggerWritesToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newGormLogger(zap.New(core), false)

	l.Info(context.Background(), "not shown at warn level")
	l.Warn(context.Background(), "slow query %s", "select 1")

	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "slow query select 1")
	assert.Equal(t, "gorm", logs.All()[0].LoggerName)

	debug := newGormLogger(zap.New(core), true)
	debug.Info(context.Background(), "statement")
	assert.Equal(t, 2, logs.Len())
}

func TestOpen_Unreachable(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "127.0.0.1", Port: 1, User: "x", DBName: "x", SSLMode: "disable"}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Open(ctx, cfg, nil, false)
	assert.Error(t, err)
}

var _ gormlogger.Interface = newGormLogger(zap.NewNop(), false)
