// Package database 打开联系人记录使用的 postgres 连接
package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/assessly/internal/config"
	"github.com/ashwinyue/assessly/internal/model"
)

const (
	pingTimeout   = 5 * time.Second
	slowThreshold = 200 * time.Millisecond
)

// DB 联系人数据库
type DB struct {
	*gorm.DB
}

// Open 连接数据库并迁移联系人表
// SQL 日志通过 zap 输出，debug 时记录每条语句，否则只记录慢查询与错误
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger, debug bool) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: newGormLogger(logger, debug),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	pool := poolSettings(cfg)
	sqlDB.SetMaxOpenConns(pool.maxOpen)
	sqlDB.SetMaxIdleConns(pool.maxIdle)
	sqlDB.SetConnMaxLifetime(pool.lifetime)

	out := &DB{DB: db}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := out.Ping(pingCtx); err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(model.AllModels...); err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("failed to migrate contact records: %w", err)
	}
	logger.Info("database ready",
		zap.String("database", cfg.DBName),
		zap.Int("max_open_conns", pool.maxOpen),
	)
	return out, nil
}

type pool struct {
	maxOpen  int
	maxIdle  int
	lifetime time.Duration
}

// poolSettings 未配置的项使用默认值，空闲连接数不超过最大连接数
func poolSettings(cfg config.DatabaseConfig) pool {
	p := pool{maxOpen: 10, maxIdle: 2, lifetime: 5 * time.Minute}
	if cfg.MaxOpenConns > 0 {
		p.maxOpen = cfg.MaxOpenConns
	}
	if cfg.MaxIdleConns > 0 {
		p.maxIdle = cfg.MaxIdleConns
	}
	if p.maxIdle > p.maxOpen {
		p.maxIdle = p.maxOpen
	}
	if cfg.MaxLifetime > 0 {
		p.lifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}
	return p
}

func newGormLogger(logger *zap.Logger, debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Close 关闭连接池
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping 健康检查
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
