package model

import "time"

// Step 表单对话所处步骤
type Step string

const (
	StepNone            Step = "none"
	StepAwaitingName    Step = "awaiting_name"
	StepAwaitingEmail   Step = "awaiting_email"
	StepAwaitingMessage Step = "awaiting_message" // 电话或留言
)

// ConversationState 单个用户的对话状态
type ConversationState struct {
	UserID    string    `json:"user_id"`
	Step      Step      `json:"step"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active 是否处于表单流程中
func (s *ConversationState) Active() bool {
	return s != nil && s.Step != "" && s.Step != StepNone
}

// Expired 状态是否已超过空闲时间
func (s *ConversationState) Expired(now time.Time, idle time.Duration) bool {
	return now.Sub(s.UpdatedAt) > idle
}

// Turn 一轮对话（用户消息 + 机器人回复）
type Turn struct {
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	CreatedAt time.Time `json:"created_at"`
}
