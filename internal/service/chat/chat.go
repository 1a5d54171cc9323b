// Package chat 按固定顺序把用户消息分派给 FAQ、表单流程、固定回复或 LLM
package chat

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ashwinyue/assessly/internal/metrics"
	"github.com/ashwinyue/assessly/internal/model"
	"github.com/ashwinyue/assessly/internal/service/contact"
	"github.com/ashwinyue/assessly/internal/service/faq"
	"github.com/ashwinyue/assessly/internal/service/form"
	"github.com/ashwinyue/assessly/internal/service/intent"
	"github.com/ashwinyue/assessly/internal/service/llm"
	"github.com/ashwinyue/assessly/internal/service/session"
	"go.uber.org/zap"
)

// 回复类型
const (
	TypeBot   = "bot"
	TypeError = "error"
)

// 回复来源
const (
	SourceEmpty    = "empty"
	SourceFAQ      = "faq"
	SourceForm     = "form"
	SourceTrigger  = "trigger"
	SourceCanned   = "canned"
	SourceOffTopic = "offtopic"
	SourceLLM      = "llm"
)

const (
	emptyMessageReply = "Please enter a message."
	introReply        = "I'm Assessly, your AI-powered HR assistant! I can help with interview tips, test creation, candidate assessments, HR terms, and more. Just ask me anything in the HR space!"
	offTopicReply     = "I'm built to assist with hiring, HR, assessments, and workplace topics. Ask me anything related to your career or recruitment!"
	saveFailedReply   = "Sorry, we couldn't save your details right now. Please send your phone number or message again."
	stateFailedReply  = "Sorry, something went wrong on our side. Please try again."
)

var (
	introQueries = []string{"what can you do", "who are you", "what are you", "how can you help"}
	offTopicRe   = regexp.MustCompile(`(?i)\b(jokes?|weather|cricket|movies?|games?|bitcoin)\b`)
)

// DefaultTriggerPhrases 开始人工联系流程的默认短语
var DefaultTriggerPhrases = []string{"talk to someone"}

// Generator LLM 生成接口，*llm.Service 实现
type Generator interface {
	Generate(ctx context.Context, p *llm.Prompt) (string, error)
}

// Reply 一次回复
type Reply struct {
	Text   string `json:"response"`
	Type   string `json:"type"`
	Source string `json:"-"`
}

// Options 对话配置
type Options struct {
	IdleTimeout    time.Duration
	HistoryLimit   int
	TriggerPhrases []string
	Now            func() time.Time
}

// Service 对话服务
type Service struct {
	store      session.Store
	faq        *faq.Matcher
	classifier *intent.Classifier
	contacts   contact.Store
	gen        Generator
	metrics    *metrics.Metrics
	logger     *zap.Logger
	locks      *userLocks

	idle         time.Duration
	historyLimit int
	triggers     []string
	now          func() time.Time
}

// NewService 创建对话服务
func NewService(
	store session.Store,
	matcher *faq.Matcher,
	classifier *intent.Classifier,
	contacts contact.Store,
	gen Generator,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts Options,
) *Service {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = session.DefaultIdleTimeout
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	if len(opts.TriggerPhrases) == 0 {
		opts.TriggerPhrases = DefaultTriggerPhrases
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	triggers := make([]string, 0, len(opts.TriggerPhrases))
	for _, p := range opts.TriggerPhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			triggers = append(triggers, p)
		}
	}

	return &Service{
		store:        store,
		faq:          matcher,
		classifier:   classifier,
		contacts:     contacts,
		gen:          gen,
		metrics:      m,
		logger:       logger,
		locks:        newUserLocks(),
		idle:         opts.IdleTimeout,
		historyLimit: opts.HistoryLimit,
		triggers:     triggers,
		now:          opts.Now,
	}
}

// Reply 处理一条用户消息
// 所有分支都返回可展示的回复，错误只记录日志
// 同一用户的消息串行处理
func (s *Service) Reply(ctx context.Context, userID, message string) *Reply {
	msg := strings.TrimSpace(message)
	if msg == "" {
		r := &Reply{Text: emptyMessageReply, Type: TypeError, Source: SourceEmpty}
		s.metrics.ObserveReply(r.Source, r.Type)
		return r
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	r := s.dispatch(ctx, userID, msg)

	if err := s.store.AppendTurn(ctx, userID, model.Turn{User: msg, Bot: r.Text, CreatedAt: s.now()}); err != nil {
		s.logger.Warn("failed to append history", zap.String("user_id", userID), zap.Error(err))
	}
	s.metrics.ObserveReply(r.Source, r.Type)
	return r
}

func (s *Service) dispatch(ctx context.Context, userID, msg string) *Reply {
	now := s.now()
	lower := strings.ToLower(msg)

	state := s.loadState(ctx, userID, now)

	if answer, ok := s.faq.Match(msg); ok {
		if state.Active() {
			s.clearState(ctx, userID)
		}
		return &Reply{Text: answer, Type: TypeBot, Source: SourceFAQ}
	}

	if state.Active() {
		return s.advanceForm(ctx, state, msg, now)
	}

	if s.isTrigger(lower) {
		st, prompt := form.Start(userID, now)
		if err := s.store.Save(ctx, st); err != nil {
			s.logger.Error("failed to start contact flow", zap.String("user_id", userID), zap.Error(err))
			return &Reply{Text: stateFailedReply, Type: TypeError, Source: SourceTrigger}
		}
		return &Reply{Text: prompt, Type: TypeBot, Source: SourceTrigger}
	}

	for _, q := range introQueries {
		if strings.Contains(lower, q) {
			return &Reply{Text: introReply, Type: TypeBot, Source: SourceCanned}
		}
	}

	if offTopicRe.MatchString(msg) {
		return &Reply{Text: offTopicReply, Type: TypeBot, Source: SourceOffTopic}
	}

	return s.fallback(ctx, userID, msg)
}

// loadState 读取状态并清理超过空闲时间的旧状态
func (s *Service) loadState(ctx context.Context, userID string, now time.Time) *model.ConversationState {
	state, err := s.store.Load(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load conversation state", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	if state != nil && state.Expired(now, s.idle) {
		s.logger.Debug("reaping stale conversation state",
			zap.String("user_id", userID),
			zap.String("step", string(state.Step)),
		)
		s.clearState(ctx, userID)
		return nil
	}
	return state
}

func (s *Service) clearState(ctx context.Context, userID string) {
	if err := s.store.Delete(ctx, userID); err != nil {
		s.logger.Warn("failed to clear conversation state", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *Service) advanceForm(ctx context.Context, state *model.ConversationState, msg string, now time.Time) *Reply {
	res := form.Advance(state, msg, now)

	switch res.Outcome {
	case form.Invalid:
		if err := s.store.Save(ctx, res.State); err != nil {
			s.logger.Warn("failed to refresh conversation state", zap.String("user_id", state.UserID), zap.Error(err))
		}
		return &Reply{Text: res.Reply, Type: TypeError, Source: SourceForm}

	case form.Completed:
		return s.complete(ctx, state, res, now)
	}

	if err := s.store.Save(ctx, res.State); err != nil {
		s.logger.Error("failed to save conversation state", zap.String("user_id", state.UserID), zap.Error(err))
		return &Reply{Text: stateFailedReply, Type: TypeError, Source: SourceForm}
	}
	return &Reply{Text: res.Reply, Type: TypeBot, Source: SourceForm}
}

// complete 先认领状态再写入联系人，保证一次对话只写一条记录
func (s *Service) complete(ctx context.Context, state *model.ConversationState, res form.Result, now time.Time) *Reply {
	taken, err := s.store.Take(ctx, state.UserID, state.Step)
	if err != nil {
		s.logger.Error("failed to claim conversation state", zap.String("user_id", state.UserID), zap.Error(err))
		return &Reply{Text: stateFailedReply, Type: TypeError, Source: SourceForm}
	}
	if !taken {
		// 另一实例已完成同一对话
		s.logger.Info("contact flow already completed", zap.String("user_id", state.UserID))
		return &Reply{Text: res.Reply, Type: TypeBot, Source: SourceForm}
	}

	record := contact.NewRecord(res.State, now)
	if err := s.contacts.Append(ctx, record); err != nil {
		s.logger.Error("failed to save contact record", zap.String("user_id", state.UserID), zap.Error(err))
		restored := *state
		restored.UpdatedAt = now
		if err := s.store.Save(ctx, &restored); err != nil {
			s.logger.Warn("failed to restore conversation state", zap.String("user_id", state.UserID), zap.Error(err))
		}
		return &Reply{Text: saveFailedReply, Type: TypeError, Source: SourceForm}
	}
	s.logger.Info("contact record saved",
		zap.String("user_id", state.UserID),
		zap.String("contact_id", record.ID),
	)
	return &Reply{Text: res.Reply, Type: TypeBot, Source: SourceForm}
}

func (s *Service) isTrigger(lower string) bool {
	for _, p := range s.triggers {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func (s *Service) fallback(ctx context.Context, userID, msg string) *Reply {
	topic := s.classifier.Classify(msg)

	history, err := s.store.History(ctx, userID, s.historyLimit)
	if err != nil {
		s.logger.Warn("failed to load history", zap.String("user_id", userID), zap.Error(err))
	}

	prompt := llm.BuildPrompt(msg, topic, history, s.historyLimit)
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return &Reply{Text: llm.FallbackMessage(err), Type: TypeError, Source: SourceLLM}
	}
	return &Reply{Text: text, Type: TypeBot, Source: SourceLLM}
}

// Reset 清空用户的表单状态与历史（访问首页或联系页时调用）
func (s *Service) Reset(ctx context.Context, userID string) error {
	return s.store.Reset(ctx, userID)
}
