package callback

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var info = &callbacks.RunInfo{Name: "assessly", Type: "OpenAI", Component: components.ComponentOfChatModel}

func TestLogger_OnEndTokenUsage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLogger(zap.New(core))

	l.OnEnd(context.Background(), info, &einomodel.CallbackOutput{
		Message:    schema.AssistantMessage("hello", nil),
		TokenUsage: &einomodel.TokenUsage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17},
	})

	entries := logs.FilterMessage("eino end").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["total_tokens"] != int64(17) {
		t.Errorf("total_tokens = %v, want 17", fields["total_tokens"])
	}
	if fields["component"] != string(components.ComponentOfChatModel) {
		t.Errorf("component = %v", fields["component"])
	}
}

func TestLogger_OnError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := NewLogger(zap.New(core))

	l.OnError(context.Background(), info, errors.New("status code: 429"))
	l.OnStart(context.Background(), info, &einomodel.CallbackInput{})

	if got := logs.FilterMessage("eino error").Len(); got != 1 {
		t.Errorf("error entries = %d, want 1", got)
	}
	if got := logs.FilterMessage("eino start").Len(); got != 0 {
		t.Errorf("start should log at debug level only, got %d at warn", got)
	}
}
