// Package intent 基于正则的粗粒度话题识别
// 结果只作为 LLM 提示词中的话题提示
package intent

import "regexp"

// 话题名称
const (
	TestCreation = "test_creation"
	Proctoring   = "proctoring"
	PortalAccess = "portal_access"
	HumanSupport = "human_support"
	SystemInfo   = "system_info"
)

// Group 一组命名正则
type Group struct {
	Name     string
	Patterns []*regexp.Regexp
}

// Classifier 按顺序匹配，第一个命中的组胜出
type Classifier struct {
	groups []Group
}

// DefaultGroups 默认话题组
func DefaultGroups() []Group {
	return []Group{
		{Name: TestCreation, Patterns: compile(
			`\b(create|build|make|design|generate|set ?up)\b.*\b(test|assessment|quiz|exam)s?\b`,
			`\bquestion (bank|types?)\b`,
			`\bdifficulty\b`,
		)},
		{Name: Proctoring, Patterns: compile(
			`\bproctor(ing|ed)?\b`,
			`\b(cheat(ing)?|webcam|tab.?switch\w*|invigilat\w*)\b`,
		)},
		{Name: PortalAccess, Patterns: compile(
			`\b(log ?in|sign ?in|sign ?up|portal|dashboard|password|account)\b`,
		)},
		{Name: HumanSupport, Patterns: compile(
			`\b(human|agent|representative|someone|person|support team|call me|callback)\b`,
		)},
		{Name: SystemInfo, Patterns: compile(
			`\b(who|what) are you\b`,
			`\b(version|are you (an? )?(ai|bot)|which model|system)\b`,
		)},
	}
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// NewClassifier 创建分类器；groups 为空时使用默认组
func NewClassifier(groups []Group) *Classifier {
	if len(groups) == 0 {
		groups = DefaultGroups()
	}
	return &Classifier{groups: groups}
}

// Classify 返回第一个命中的话题名，未命中返回空串
func (c *Classifier) Classify(message string) string {
	for _, g := range c.groups {
		for _, re := range g.Patterns {
			if re.MatchString(message) {
				return g.Name
			}
		}
	}
	return ""
}
