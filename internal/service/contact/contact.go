// Package contact 保存表单流程收集到的联系人记录
package contact

import (
	"context"
	"strings"
	"time"

	"github.com/ashwinyue/assessly/internal/model"
	"github.com/google/uuid"
)

// Store 联系人记录存储，只追加
type Store interface {
	Append(ctx context.Context, record *model.ContactRecord) error
	List(ctx context.Context, limit int) ([]*model.ContactRecord, error)
}

// NewRecord 从完成的表单状态构建记录
func NewRecord(state *model.ConversationState, now time.Time) *model.ContactRecord {
	return &model.ContactRecord{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(state.Name),
		Email:     strings.TrimSpace(state.Email),
		Message:   strings.TrimSpace(state.Message),
		CreatedAt: now.UTC(),
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
