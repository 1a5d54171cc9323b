// Package llm 封装外部文本生成服务：提示词构建、重试策略与结果清洗
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Generator 文本生成接口
type Generator interface {
	Generate(ctx context.Context, p *Prompt) (string, error)
}

// Kind 失败类型
type Kind string

const (
	KindAuth      Kind = "auth"
	KindRateLimit Kind = "rate_limit"
	KindServer    Kind = "server"
	KindNetwork   Kind = "network"
	KindMalformed Kind = "malformed"
	KindEmpty     Kind = "empty"
	KindCanceled  Kind = "canceled"
)

// Transient 是否值得重试
func (k Kind) Transient() bool {
	switch k {
	case KindRateLimit, KindServer, KindNetwork:
		return true
	}
	return false
}

// Error 生成服务错误
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf 提取错误类型，未知错误按网络错误处理
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return KindNetwork
}

// KindForStatus HTTP 状态码到失败类型
func KindForStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimit
	case status >= 500:
		return KindServer
	default:
		return KindMalformed
	}
}

var statusCodeRe = regexp.MustCompile(`status code: (\d{3})`)

// classifyError 对没有结构化状态码的 SDK 错误做归类
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Err: err}
	}
	if m := statusCodeRe.FindStringSubmatch(err.Error()); m != nil {
		status, _ := strconv.Atoi(m[1])
		return &Error{Kind: KindForStatus(status), Status: status, Err: err}
	}
	return &Error{Kind: KindNetwork, Err: err}
}

const faqHint = "Please try again later or ask a common question like 'What are your working hours?'"

// FallbackMessage 不可恢复错误对应的用户提示
func FallbackMessage(err error) string {
	switch KindOf(err) {
	case KindAuth:
		return "Sorry, I'm unable to reach my AI service right now. " + faqHint
	case KindRateLimit:
		return "Sorry, I'm receiving a lot of questions right now. " + faqHint
	case KindServer:
		return "Sorry, the AI service is temporarily unavailable. " + faqHint
	case KindNetwork:
		return "Sorry, I couldn't connect to the AI service. " + faqHint
	default:
		return "Sorry, I couldn't generate a response. " + faqHint
	}
}

// Options 重试配置
type Options struct {
	Timeout     time.Duration // 单次请求超时
	Backoff     time.Duration // 重试前固定等待
	MaxAttempts int
}

// Service 带重试的生成服务
type Service struct {
	gen     Generator
	opts    Options
	logger  *zap.Logger
	observe func(outcome string, d time.Duration)
}

// NewService 创建生成服务
func NewService(gen Generator, opts Options, logger *zap.Logger) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gen: gen, opts: opts, logger: logger}
}

// SetObserver 设置耗时观察回调（用于指标）
func (s *Service) SetObserver(fn func(outcome string, d time.Duration)) {
	s.observe = fn
}

// Generate 调用生成服务，瞬时错误在固定等待后重试
// 返回的文本已清洗
func (s *Service) Generate(ctx context.Context, p *Prompt) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		text, err := s.attempt(ctx, p)
		if err == nil {
			return text, nil
		}
		lastErr = err

		kind := KindOf(err)
		if !kind.Transient() || attempt == s.opts.MaxAttempts || ctx.Err() != nil {
			break
		}

		s.logger.Warn("llm request failed, retrying",
			zap.Int("attempt", attempt),
			zap.String("kind", string(kind)),
			zap.Duration("backoff", s.opts.Backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(s.opts.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", &Error{Kind: KindCanceled, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	s.logger.Error("llm request failed",
		zap.String("kind", string(KindOf(lastErr))),
		zap.Error(lastErr),
	)
	return "", lastErr
}

func (s *Service) attempt(ctx context.Context, p *Prompt) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.gen.Generate(attemptCtx, p)
	err = classifyError(err)

	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	if s.observe != nil {
		s.observe(outcome, time.Since(start))
	}
	if err != nil {
		return "", err
	}

	text := Clean(raw)
	if text == "" {
		return "", &Error{Kind: KindEmpty, Err: errors.New("empty response text")}
	}
	return text, nil
}

// unavailable 未配置生成服务时使用
type unavailable struct {
	err error
}

// NewUnavailable 返回一个总是以鉴权错误失败的生成器
func NewUnavailable(reason error) Generator {
	return unavailable{err: reason}
}

func (u unavailable) Generate(context.Context, *Prompt) (string, error) {
	return "", &Error{Kind: KindAuth, Err: u.err}
}
