package contact

import (
	"context"
	"fmt"

	"github.com/ashwinyue/assessly/internal/model"
	"github.com/ashwinyue/assessly/internal/repository"
)

// DBStore 基于数据库的存储
type DBStore struct {
	repo *repository.ContactRepository
}

// NewDBStore 创建数据库存储
func NewDBStore(repo *repository.ContactRepository) *DBStore {
	return &DBStore{repo: repo}
}

// Append 插入一条记录
func (s *DBStore) Append(ctx context.Context, record *model.ContactRecord) error {
	if err := s.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to save contact: %w", err)
	}
	return nil
}

// List 按时间倒序列出
func (s *DBStore) List(ctx context.Context, limit int) ([]*model.ContactRecord, error) {
	records, err := s.repo.ListRecent(ctx, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return records, nil
}
