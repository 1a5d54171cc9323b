package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

const maxResponseBytes = 1 << 20

// GeminiConfig Gemini REST 客户端配置
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// GeminiClient 调用 generateContent 接口
type GeminiClient struct {
	cfg        GeminiConfig
	httpClient *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// NewGeminiClient 创建客户端；httpClient 为空时使用默认客户端
func NewGeminiClient(cfg GeminiConfig, httpClient *http.Client) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GeminiClient{cfg: cfg, httpClient: httpClient}, nil
}

func (c *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))
}

func (c *GeminiClient) buildRequest(p *Prompt) *geminiRequest {
	contents := make([]geminiContent, 0, 2*len(p.History)+1)
	for _, t := range p.History {
		contents = append(contents,
			geminiContent{Role: "user", Parts: []geminiPart{{Text: t.User}}},
			geminiContent{Role: "model", Parts: []geminiPart{{Text: t.Bot}}},
		)
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: p.Message}}})

	req := &geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: c.cfg.MaxTokens,
			Temperature:     c.cfg.Temperature,
		},
	}
	if p.System != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: p.System}}}
	}
	return req
}

// Generate 实现 Generator
func (c *GeminiClient) Generate(ctx context.Context, p *Prompt) (string, error) {
	payload, err := json.Marshal(c.buildRequest(p))
	if err != nil {
		return "", &Error{Kind: KindMalformed, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Kind: KindMalformed, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", &Error{Kind: KindCanceled, Err: err}
		}
		// 去掉 URL 中的 key
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			Kind:   KindForStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Err:    fmt.Errorf("gemini api error: %s", truncate(string(body), 200)),
		}
	}

	parsed, err := decodeGeminiResponse(body)
	if err != nil {
		return "", &Error{Kind: KindMalformed, Status: resp.StatusCode, Err: err}
	}

	if len(parsed.Candidates) == 0 {
		reason := "no candidates"
		if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
			reason = "blocked: " + parsed.PromptFeedback.BlockReason
		}
		return "", &Error{Kind: KindEmpty, Status: resp.StatusCode, Err: errors.New(reason)}
	}

	var b strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

// decodeGeminiResponse 解析响应，非法 JSON 先尝试修复一次
func decodeGeminiResponse(body []byte) (*geminiResponse, error) {
	var parsed geminiResponse
	err := json.Unmarshal(body, &parsed)
	if err == nil {
		return &parsed, nil
	}

	repaired, rerr := jsonrepair.JSONRepair(string(body))
	if rerr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode repaired response: %w", err)
	}
	return &parsed, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
