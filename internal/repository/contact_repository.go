package repository

import (
	"context"

	"github.com/ashwinyue/assessly/internal/model"
	"gorm.io/gorm"
)

// ContactRepository 联系人记录数据访问
type ContactRepository struct {
	db *gorm.DB
}

// NewContactRepository 创建联系人仓库
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create 追加一条记录
func (r *ContactRepository) Create(ctx context.Context, record *model.ContactRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListRecent 按时间倒序列出记录
func (r *ContactRepository) ListRecent(ctx context.Context, limit int) ([]*model.ContactRecord, error) {
	var records []*model.ContactRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// Count 记录总数
func (r *ContactRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ContactRecord{}).Count(&n).Error
	return n, err
}
