package model

import "time"

// ContactRecord 表单流程完成后保存的联系人记录
type ContactRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"size:255;index" json:"email"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// TableName 指定表名
func (ContactRecord) TableName() string {
	return "contact_records"
}
