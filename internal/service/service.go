package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ashwinyue/assessly/internal/config"
	"github.com/ashwinyue/assessly/internal/database"
	"github.com/ashwinyue/assessly/internal/metrics"
	"github.com/ashwinyue/assessly/internal/repository"
	"github.com/ashwinyue/assessly/internal/service/callback"
	"github.com/ashwinyue/assessly/internal/service/chat"
	"github.com/ashwinyue/assessly/internal/service/contact"
	"github.com/ashwinyue/assessly/internal/service/faq"
	"github.com/ashwinyue/assessly/internal/service/intent"
	"github.com/ashwinyue/assessly/internal/service/llm"
	"github.com/ashwinyue/assessly/internal/service/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Chat     *chat.Service
	Contacts contact.Store
	FAQ      *faq.Matcher
	Metrics  *metrics.Metrics
	Config   *config.Config

	memStore *session.MemoryStore // 仅 memory 后端
	checks   map[string]func(context.Context) error
	closers  []func() error
	logger   *zap.Logger
}

// NewServices 按配置创建所有服务
func NewServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	s := &Services{
		Config:  cfg,
		Metrics: metrics.New(),
		checks:  make(map[string]func(context.Context) error),
		logger:  logger,
	}

	store, err := s.newStateStore(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	contacts, err := s.newContactStore(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Contacts = contacts

	matcher, err := newFAQMatcher(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.FAQ = matcher

	gen := newGenerator(ctx, cfg, logger)
	llmSvc := llm.NewService(gen, llm.Options{
		Timeout:     cfg.AI.Timeout,
		Backoff:     cfg.AI.RetryBackoff,
		MaxAttempts: cfg.AI.MaxAttempts,
	}, logger.Named("llm"))
	llmSvc.SetObserver(s.Metrics.ObserveLLM)

	s.Chat = chat.NewService(
		store,
		matcher,
		intent.NewClassifier(nil),
		contacts,
		llmSvc,
		s.Metrics,
		logger.Named("chat"),
		chat.Options{
			IdleTimeout:    cfg.Chat.IdleTimeout,
			HistoryLimit:   cfg.Chat.HistoryLimit,
			TriggerPhrases: cfg.Chat.TriggerPhrases,
		},
	)
	return s, nil
}

// OpenContacts 只打开联系人记录存储，返回的函数用于释放连接
func OpenContacts(ctx context.Context, cfg *config.Config, logger *zap.Logger) (contact.Store, func() error, error) {
	s := &Services{
		Config: cfg,
		checks: make(map[string]func(context.Context) error),
		logger: logger,
	}
	store, err := s.newContactStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store, s.Close, nil
}

// newStateStore 创建会话状态存储
func (s *Services) newStateStore(ctx context.Context) (session.Store, error) {
	cfg := s.Config
	opts := session.Options{
		IdleTimeout: cfg.Chat.IdleTimeout,
		HistoryCap:  2 * cfg.Chat.HistoryLimit,
	}

	switch cfg.Chat.StateBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		s.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		s.logger.Info("conversation state backend", zap.String("backend", "redis"), zap.String("addr", cfg.Redis.GetAddr()))
		return session.NewRedisStore(client, cfg.Redis.KeyPrefix, opts), nil
	default:
		s.memStore = session.NewMemoryStore(opts)
		s.logger.Info("conversation state backend", zap.String("backend", "memory"))
		return s.memStore, nil
	}
}

// newContactStore 创建联系人记录存储
func (s *Services) newContactStore(ctx context.Context) (contact.Store, error) {
	cfg := s.Config

	switch cfg.Contact.Backend {
	case "postgres":
		db, err := database.Open(ctx, cfg.Database, s.logger.Named("database"), cfg.App.Debug)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		s.checks["database"] = db.Ping
		s.logger.Info("contact backend", zap.String("backend", "postgres"))
		repos := repository.NewRepositories(db.DB)
		return contact.NewDBStore(repos.Contact), nil
	default:
		s.logger.Info("contact backend", zap.String("backend", "file"), zap.String("path", cfg.Contact.FilePath))
		return contact.NewFileStore(cfg.Contact.FilePath), nil
	}
}

// newFAQMatcher 加载 FAQ 表，未配置文件时使用默认表
func newFAQMatcher(cfg *config.Config) (*faq.Matcher, error) {
	if cfg.Chat.FAQPath == "" {
		return faq.NewDefaultMatcher(), nil
	}
	m, err := faq.LoadFile(cfg.Chat.FAQPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load faq file: %w", err)
	}
	return m, nil
}

// newGenerator 创建文本生成客户端
// 缺少 API Key 时服务仍可启动，LLM 回退返回固定提示
func newGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) llm.Generator {
	httpClient := &http.Client{}

	var (
		gen llm.Generator
		err error
	)
	switch cfg.AI.Provider {
	case "openai":
		gen, err = llm.NewOpenAIClient(ctx, llm.OpenAIConfig{
			APIKey:      cfg.AI.OpenAI.APIKey,
			BaseURL:     cfg.AI.OpenAI.BaseURL,
			Model:       cfg.AI.OpenAI.Model,
			MaxTokens:   cfg.AI.OpenAI.MaxTokens,
			Temperature: cfg.AI.OpenAI.Temperature,
		}, httpClient, callback.NewLogger(logger.Named("eino")))
	default:
		gen, err = llm.NewGeminiClient(llm.GeminiConfig{
			APIKey:      cfg.AI.Gemini.APIKey,
			BaseURL:     cfg.AI.Gemini.BaseURL,
			Model:       cfg.AI.Gemini.Model,
			MaxTokens:   cfg.AI.Gemini.MaxTokens,
			Temperature: cfg.AI.Gemini.Temperature,
		}, httpClient)
	}
	if err != nil {
		logger.Warn("llm provider unavailable, fallback replies only",
			zap.String("provider", cfg.AI.Provider),
			zap.Error(err),
		)
		return llm.NewUnavailable(err)
	}
	logger.Info("llm provider ready", zap.String("provider", cfg.AI.Provider))
	return gen
}

// Run 启动后台任务，直到 ctx 取消
func (s *Services) Run(ctx context.Context) {
	if s.memStore != nil {
		go s.memStore.Run(ctx, s.Config.Chat.SweepInterval)
	}
}

// Ping 检查外部依赖
func (s *Services) Ping(ctx context.Context) map[string]error {
	result := make(map[string]error, len(s.checks))
	for name, check := range s.checks {
		result[name] = check(ctx)
	}
	return result
}

// Close 释放连接
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
