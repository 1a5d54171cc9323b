// Package faq 提供基于固定问答表的匹配
package faq

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ashwinyue/assessly/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrEmptyQuestion 问答表中存在空问题
var ErrEmptyQuestion = errors.New("faq question must not be empty")

// DefaultEntries 默认问答表，顺序即匹配优先级
var DefaultEntries = []model.FAQ{
	{Question: "what are your working hours", Answer: "Our working hours are Monday to Friday, 9 AM to 8 PM IST."},
	{Question: "where is your office located", Answer: "Our office is located at Bagdola, Sector 8 Dwarka, Palam, New Delhi."},
	{Question: "how does test creation work", Answer: "With Assessly, HR professionals can create custom tests using our AI-powered platform. You can define question types, set difficulty levels, and generate tests tailored to your needs."},
	{Question: "what is hr", Answer: "HR stands for Human Resources. It refers to the department in an organization responsible for managing employee-related processes like hiring, training, payroll, and ensuring a positive workplace environment."},
	{Question: "is ai working", Answer: "Yes, I'm working perfectly! I'm Assessly, your AI assistant, here to help with your queries. What would you like to know?"},
	{Question: "how to contact support", Answer: "You can reach our support team via email at info@uptoskills.com or call us at +91-7417269505 during working hours."},
	{Question: "what is assessly", Answer: "Assessly is an AI-powered HR assessment platform that helps organizations streamline their hiring process by creating custom tests, evaluating candidates, and providing insightful analytics."},
	{Question: "how to create an account", Answer: "To create an account, visit our website at uptoskills.com, click on 'Sign Up,' and fill in your details. You'll receive a confirmation email to activate your account."},
	{Question: "what types of tests are available", Answer: "We offer a variety of tests including aptitude tests, technical skills assessments, personality tests, and role-specific evaluations tailored for HR needs."},
	{Question: "how to schedule a test", Answer: "To schedule a test, log in to your Assessly account, go to the 'Tests' section, select the test you want to schedule, and choose a date and time. You can then invite candidates via email."},
	{Question: "what is proctoring", Answer: "Proctoring is the supervision of an online test to keep it fair. Assessly uses webcam monitoring, tab-switch detection and AI-based behaviour analysis to flag suspicious activity during an assessment."},
	{Question: "how do i access the portal", Answer: "Log in at uptoskills.com with your registered email and password. Candidates receive a unique test link by email, and HR users can open the dashboard from the 'Login' button."},
}

// Matcher 问答匹配器
type Matcher struct {
	entries []model.FAQ
}

// NewMatcher 创建匹配器，问题统一转为小写
func NewMatcher(entries []model.FAQ) (*Matcher, error) {
	normalized := make([]model.FAQ, 0, len(entries))
	for i, e := range entries {
		q := strings.ToLower(strings.TrimSpace(e.Question))
		if q == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrEmptyQuestion)
		}
		normalized = append(normalized, model.FAQ{Question: q, Answer: e.Answer})
	}
	return &Matcher{entries: normalized}, nil
}

// NewDefaultMatcher 使用默认问答表
func NewDefaultMatcher() *Matcher {
	m, _ := NewMatcher(DefaultEntries)
	return m
}

// LoadFile 从 YAML 文件加载问答表（列表格式，保持顺序）
func LoadFile(path string) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read faq file: %w", err)
	}

	var entries []model.FAQ
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse faq file: %w", err)
	}
	return NewMatcher(entries)
}

// Match 按表顺序查找第一个被消息包含的问题（不区分大小写）
func (m *Matcher) Match(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, e := range m.entries {
		if strings.Contains(lower, e.Question) {
			return e.Answer, true
		}
	}
	return "", false
}

// Entries 返回问答表副本
func (m *Matcher) Entries() []model.FAQ {
	return append([]model.FAQ(nil), m.entries...)
}
