package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// OpenAIConfig OpenAI 兼容接口配置
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// ChatModelClient 基于 eino ChatModel 的生成器
type ChatModelClient struct {
	chatModel einomodel.BaseChatModel
	handlers  []callbacks.Handler
}

// NewOpenAIClient 创建 OpenAI 兼容的 eino ChatModel
func NewOpenAIClient(ctx context.Context, cfg OpenAIConfig, httpClient *http.Client, handlers ...callbacks.Handler) (*ChatModelClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	temperature := float32(cfg.Temperature)
	maxTokens := cfg.MaxTokens

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewChatModelClient(chatModel, handlers...), nil
}

// NewChatModelClient 包装任意 eino ChatModel，handlers 在每次调用时注入
func NewChatModelClient(chatModel einomodel.BaseChatModel, handlers ...callbacks.Handler) *ChatModelClient {
	return &ChatModelClient{chatModel: chatModel, handlers: handlers}
}

// Generate 实现 Generator
func (c *ChatModelClient) Generate(ctx context.Context, p *Prompt) (string, error) {
	if len(c.handlers) > 0 {
		ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      "assessly",
			Type:      "OpenAI",
			Component: components.ComponentOfChatModel,
		}, c.handlers...)
	}
	resp, err := c.chatModel.Generate(ctx, toMessages(p))
	if err != nil {
		return "", classifyError(err)
	}
	if resp == nil {
		return "", &Error{Kind: KindEmpty, Err: errors.New("nil response")}
	}
	return resp.Content, nil
}

func toMessages(p *Prompt) []*schema.Message {
	messages := make([]*schema.Message, 0, 2*len(p.History)+2)
	if p.System != "" {
		messages = append(messages, &schema.Message{Role: schema.System, Content: p.System})
	}
	for _, t := range p.History {
		messages = append(messages,
			&schema.Message{Role: schema.User, Content: t.User},
			&schema.Message{Role: schema.Assistant, Content: t.Bot},
		)
	}
	return append(messages, &schema.Message{Role: schema.User, Content: p.Message})
}
