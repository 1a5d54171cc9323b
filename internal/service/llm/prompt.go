package llm

import (
	"strings"

	"github.com/ashwinyue/assessly/internal/model"
)

// ProductDescription 产品介绍，嵌入系统提示词
const ProductDescription = "Assessly is an AI-powered HR assessment platform by UptoSkills. " +
	"It helps organizations create custom tests, run proctored assessments, evaluate candidates " +
	"and review analytics. Support: info@uptoskills.com, Monday to Friday 9 AM to 8 PM IST."

const persona = "You are Assessly, a friendly, conversational and intelligent AI assistant for everything HR-related. " +
	"You help users understand how to create or take assessments, prepare for interviews, explain HR processes and share company info. " +
	"If someone asks off-topic questions, gently guide them back to HR or career topics in a kind way."

const styleRule = "Keep your tone friendly and conversational. Keep the response under 150 words. Do not use markdown."

// Prompt 一次生成请求的输入
type Prompt struct {
	System  string
	History []model.Turn
	Message string
	Intent  string
}

// BuildPrompt 构建提示词
// history 按时间顺序，只保留最近 limit 轮
func BuildPrompt(message, intentHint string, history []model.Turn, limit int) *Prompt {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nProduct: ")
	b.WriteString(ProductDescription)
	if intentHint != "" {
		b.WriteString("\nThe user's question appears to be about: ")
		b.WriteString(strings.ReplaceAll(intentHint, "_", " "))
		b.WriteString(".")
	}
	b.WriteString("\n")
	b.WriteString(styleRule)

	return &Prompt{
		System:  b.String(),
		History: append([]model.Turn(nil), history...),
		Message: message,
		Intent:  intentHint,
	}
}
