// Package form 实现收集姓名、邮箱、电话/留言的三步表单对话
package form

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ashwinyue/assessly/internal/model"
)

// 回复文案
const (
	PromptName    = "Sure, please provide your name."
	PromptEmail   = "Thanks, now please provide your email."
	PromptMessage = "Great, now please share your phone number or a short message for our team."

	InvalidName    = "Please provide your name (at least 2 characters)."
	InvalidEmail   = "Please provide a valid email address."
	InvalidMessage = "Please provide a valid phone number or a message of at least 5 characters."
)

const (
	minNameLen     = 2
	minMessageLen  = 5
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe = regexp.MustCompile(`^\+?[\d\s\-()]{10,20}$`)
)

// Outcome 单步处理结果
type Outcome int

const (
	// Advanced 进入下一步
	Advanced Outcome = iota
	// Invalid 输入不合法，步骤与已收集字段不变，只刷新 UpdatedAt
	Invalid
	// Completed 三步全部完成
	Completed
)

// Result 单步处理结果
type Result struct {
	Outcome Outcome
	Reply   string
	State   *model.ConversationState
}

// Start 开始表单流程
func Start(userID string, now time.Time) (*model.ConversationState, string) {
	return &model.ConversationState{
		UserID:    userID,
		Step:      model.StepAwaitingName,
		UpdatedAt: now,
	}, PromptName
}

// Advance 校验当前步骤的输入，合法则推进
// 不修改传入的 state
func Advance(state *model.ConversationState, input string, now time.Time) Result {
	input = strings.TrimSpace(input)
	next := *state
	retry := *state
	retry.UpdatedAt = now

	switch state.Step {
	case model.StepAwaitingName:
		if !ValidName(input) {
			return Result{Outcome: Invalid, Reply: InvalidName, State: &retry}
		}
		next.Name = input
		next.Step = model.StepAwaitingEmail
		next.UpdatedAt = now
		return Result{Outcome: Advanced, Reply: PromptEmail, State: &next}

	case model.StepAwaitingEmail:
		if !ValidEmail(input) {
			return Result{Outcome: Invalid, Reply: InvalidEmail, State: &retry}
		}
		next.Email = input
		next.Step = model.StepAwaitingMessage
		next.UpdatedAt = now
		return Result{Outcome: Advanced, Reply: PromptMessage, State: &next}

	case model.StepAwaitingMessage:
		if !ValidMessage(input) {
			return Result{Outcome: Invalid, Reply: InvalidMessage, State: &retry}
		}
		next.Message = input
		next.Step = model.StepNone
		next.UpdatedAt = now
		return Result{Outcome: Completed, Reply: Confirmation(&next), State: &next}
	}

	// 非表单状态，重新开始
	st, reply := Start(state.UserID, now)
	return Result{Outcome: Advanced, Reply: reply, State: st}
}

// Confirmation 完成后的确认文案
func Confirmation(s *model.ConversationState) string {
	return fmt.Sprintf("Thank you, %s! We've noted your details:\nEmail: %s\nMessage: %s\nOur team will reach out to you soon!",
		s.Name, s.Email, s.Message)
}

// ValidName 姓名至少 2 个字符
func ValidName(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= minNameLen
}

// ValidEmail 宽松的邮箱格式校验
func ValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// ValidPhone 10-15 位数字，允许 + 前缀及空格、横线、括号分隔
func ValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	if !phoneRe.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

// ValidMessage 电话号码或至少 5 个字符的留言
func ValidMessage(s string) bool {
	s = strings.TrimSpace(s)
	return ValidPhone(s) || utf8.RuneCountInString(s) >= minMessageLen
}
