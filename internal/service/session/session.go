// Package session 管理每个用户的表单对话状态与对话历史
package session

import (
	"context"
	"sync"
	"time"

	"github.com/ashwinyue/assessly/internal/model"
)

const (
	// DefaultIdleTimeout 表单状态空闲超时
	DefaultIdleTimeout = 600 * time.Second
	// DefaultHistoryCap 每个用户保留的最大历史轮数
	DefaultHistoryCap = 10
)

// Store 会话状态存储
// Load 在状态不存在或已过期时返回 (nil, nil)
// Take 仅当状态仍处于 step 时原子删除，并发请求中只有一个返回 true
type Store interface {
	Load(ctx context.Context, userID string) (*model.ConversationState, error)
	Save(ctx context.Context, state *model.ConversationState) error
	Delete(ctx context.Context, userID string) error
	Take(ctx context.Context, userID string, step model.Step) (bool, error)
	AppendTurn(ctx context.Context, userID string, turn model.Turn) error
	History(ctx context.Context, userID string, n int) ([]model.Turn, error)
	Reset(ctx context.Context, userID string) error
}

// Options 存储配置
type Options struct {
	IdleTimeout time.Duration
	HistoryCap  int
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.HistoryCap <= 0 {
		o.HistoryCap = DefaultHistoryCap
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type history struct {
	turns     []model.Turn
	updatedAt time.Time
}

// MemoryStore 进程内存储，读写锁保护
// 超过空闲时间的条目读取时视为不存在，由 Sweep 真正删除
type MemoryStore struct {
	mu        sync.RWMutex
	states    map[string]*model.ConversationState
	histories map[string]*history
	opts      Options
}

// NewMemoryStore 创建内存存储
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		states:    make(map[string]*model.ConversationState),
		histories: make(map[string]*history),
		opts:      opts.withDefaults(),
	}
}

// Load 获取状态副本
func (m *MemoryStore) Load(_ context.Context, userID string) (*model.ConversationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[userID]
	if !ok || st.Expired(m.opts.Now(), m.opts.IdleTimeout) {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

// Save 保存状态
func (m *MemoryStore) Save(_ context.Context, state *model.ConversationState) error {
	cp := *state
	m.mu.Lock()
	m.states[state.UserID] = &cp
	m.mu.Unlock()
	return nil
}

// Delete 删除状态
func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.states, userID)
	m.mu.Unlock()
	return nil
}

// Take 状态处于 step 时删除并返回 true
func (m *MemoryStore) Take(_ context.Context, userID string, step model.Step) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[userID]
	if !ok || st.Step != step || st.Expired(m.opts.Now(), m.opts.IdleTimeout) {
		return false, nil
	}
	delete(m.states, userID)
	return true, nil
}

// AppendTurn 追加一轮对话，超出上限时丢弃最早的记录
func (m *MemoryStore) AppendTurn(_ context.Context, userID string, turn model.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Now()
	h, ok := m.histories[userID]
	if !ok || now.Sub(h.updatedAt) > m.opts.IdleTimeout {
		h = &history{}
		m.histories[userID] = h
	}
	h.turns = append(h.turns, turn)
	if over := len(h.turns) - m.opts.HistoryCap; over > 0 {
		h.turns = append([]model.Turn(nil), h.turns[over:]...)
	}
	h.updatedAt = now
	return nil
}

// History 返回最近 n 轮对话（按时间顺序）
func (m *MemoryStore) History(_ context.Context, userID string, n int) ([]model.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.histories[userID]
	if !ok || n <= 0 || m.opts.Now().Sub(h.updatedAt) > m.opts.IdleTimeout {
		return nil, nil
	}
	start := len(h.turns) - n
	if start < 0 {
		start = 0
	}
	return append([]model.Turn(nil), h.turns[start:]...), nil
}

// Reset 清空状态与历史
func (m *MemoryStore) Reset(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.states, userID)
	delete(m.histories, userID)
	m.mu.Unlock()
	return nil
}

// Sweep 删除所有过期条目，返回删除数量
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Now()
	removed := 0
	for id, st := range m.states {
		if st.Expired(now, m.opts.IdleTimeout) {
			delete(m.states, id)
			removed++
		}
	}
	for id, h := range m.histories {
		if now.Sub(h.updatedAt) > m.opts.IdleTimeout {
			delete(m.histories, id)
			removed++
		}
	}
	return removed
}

// Run 定期执行 Sweep，直到 ctx 取消
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *MemoryStore) stateCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
