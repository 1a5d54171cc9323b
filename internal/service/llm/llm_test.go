package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashwinyue/assessly/internal/model"
)

// fakeGenerator 依次返回预设结果
type fakeGenerator struct {
	mu      sync.Mutex
	results []fakeResult
	calls   int
	prompts []*Prompt
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeGenerator) Generate(ctx context.Context, p *Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		return "", errors.New("unexpected call")
	}
	return f.results[i].text, f.results[i].err
}

func newTestService(gen Generator) *Service {
	return NewService(gen, Options{Timeout: time.Second, Backoff: time.Millisecond, MaxAttempts: 2}, nil)
}

func TestService_Generate(t *testing.T) {
	tests := []struct {
		name      string
		results   []fakeResult
		want      string
		wantKind  Kind
		wantCalls int
	}{
		{
			name:      "success first try is cleaned",
			results:   []fakeResult{{text: "**Hello**  there"}},
			want:      "Hello there",
			wantCalls: 1,
		},
		{
			name: "server error retried once",
			results: []fakeResult{
				{err: &Error{Kind: KindServer, Status: 503, Err: errors.New("unavailable")}},
				{text: "recovered"},
			},
			want:      "recovered",
			wantCalls: 2,
		},
		{
			name: "network error exhausts attempts",
			results: []fakeResult{
				{err: &Error{Kind: KindNetwork, Err: errors.New("dial tcp")}},
				{err: &Error{Kind: KindNetwork, Err: errors.New("dial tcp")}},
			},
			wantKind:  KindNetwork,
			wantCalls: 2,
		},
		{
			name: "auth error not retried",
			results: []fakeResult{
				{err: &Error{Kind: KindAuth, Status: 401, Err: errors.New("bad key")}},
			},
			wantKind:  KindAuth,
			wantCalls: 1,
		},
		{
			name: "malformed not retried",
			results: []fakeResult{
				{err: &Error{Kind: KindMalformed, Err: errors.New("bad json")}},
			},
			wantKind:  KindMalformed,
			wantCalls: 1,
		},
		{
			name:      "empty after cleaning",
			results:   []fakeResult{{text: " ** "}},
			wantKind:  KindEmpty,
			wantCalls: 1,
		},
		{
			name: "sdk error with status code classified",
			results: []fakeResult{
				{err: errors.New("error, status code: 429, message: slow down")},
				{text: "ok now"},
			},
			want:      "ok now",
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{results: tt.results}
			svc := newTestService(gen)

			got, err := svc.Generate(context.Background(), &Prompt{Message: "hi"})

			if gen.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", gen.calls, tt.wantCalls)
			}
			if tt.wantKind != "" {
				if err == nil {
					t.Fatalf("Generate() expected %s error, got %q", tt.wantKind, got)
				}
				if k := KindOf(err); k != tt.wantKind {
					t.Errorf("KindOf() = %s, want %s", k, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestService_CanceledDuringBackoff(t *testing.T) {
	gen := &fakeGenerator{results: []fakeResult{
		{err: &Error{Kind: KindServer, Status: 500, Err: errors.New("boom")}},
		{text: "never"},
	}}
	svc := NewService(gen, Options{Timeout: time.Second, Backoff: time.Hour, MaxAttempts: 2}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := svc.Generate(ctx, &Prompt{Message: "hi"})
	if KindOf(err) != KindCanceled {
		t.Errorf("KindOf() = %s, want canceled", KindOf(err))
	}
	if gen.calls != 1 {
		t.Errorf("calls = %d, want 1", gen.calls)
	}
}

func TestService_Observer(t *testing.T) {
	gen := &fakeGenerator{results: []fakeResult{
		{err: &Error{Kind: KindRateLimit, Status: 429, Err: errors.New("slow")}},
		{text: "fine"},
	}}
	svc := newTestService(gen)

	var outcomes []string
	svc.SetObserver(func(outcome string, _ time.Duration) {
		outcomes = append(outcomes, outcome)
	})

	if _, err := svc.Generate(context.Background(), &Prompt{Message: "hi"}); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if strings.Join(outcomes, ",") != "rate_limit,ok" {
		t.Errorf("outcomes = %v, want [rate_limit ok]", outcomes)
	}
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{401, KindAuth},
		{403, KindAuth},
		{429, KindRateLimit},
		{500, KindServer},
		{503, KindServer},
		{400, KindMalformed},
		{404, KindMalformed},
	}
	for _, tt := range tests {
		if got := KindForStatus(tt.status); got != tt.want {
			t.Errorf("KindForStatus(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestFallbackMessage(t *testing.T) {
	kinds := []Kind{KindAuth, KindRateLimit, KindServer, KindNetwork, KindMalformed, KindEmpty, KindCanceled}
	seen := map[string]bool{}
	for _, k := range kinds {
		msg := FallbackMessage(&Error{Kind: k, Err: errors.New("x")})
		if !strings.Contains(msg, "What are your working hours?") {
			t.Errorf("FallbackMessage(%s) = %q, should point at the FAQ", k, msg)
		}
		seen[msg] = true
	}
	if len(seen) != 5 {
		t.Errorf("distinct messages = %d, want 5", len(seen))
	}
}

func TestBuildPrompt(t *testing.T) {
	history := []model.Turn{
		{User: "q1", Bot: "a1"},
		{User: "q2", Bot: "a2"},
		{User: "q3", Bot: "a3"},
	}

	p := BuildPrompt("how do I prepare?", "test_creation", history, 2)

	if len(p.History) != 2 || p.History[0].User != "q2" {
		t.Errorf("History = %+v, want last two turns", p.History)
	}
	if !strings.Contains(p.System, ProductDescription) {
		t.Error("System prompt should embed the product description")
	}
	if !strings.Contains(p.System, "about: test creation.") {
		t.Errorf("System prompt should carry the intent hint, got %q", p.System)
	}
	if !strings.Contains(p.System, "under 150 words") {
		t.Error("System prompt should cap the answer length")
	}

	if len(p.History) != 2 || p.History[0].User != "q2" || p.History[1].Bot != "a3" {
		t.Errorf("History = %+v, want last two turns", p.History)
	}
	if p.Message != "how do I prepare?" {
		t.Errorf("Message = %q", p.Message)
	}

	// 修改返回值不影响调用方的切片
	p.History[0].User = "changed"
	if history[1].User != "q2" {
		t.Error("BuildPrompt should copy history")
	}
}

func TestBuildPrompt_NoIntent(t *testing.T) {
	p := BuildPrompt("hello", "", nil, 5)
	if strings.Contains(p.System, "appears to be about") {
		t.Error("System prompt should not mention a topic without a hint")
	}
	if p.Message != "hello" || len(p.History) != 0 {
		t.Errorf("prompt = %+v", p)
	}
}

func TestUnavailable(t *testing.T) {
	svc := newTestService(NewUnavailable(errors.New("no api key")))

	_, err := svc.Generate(context.Background(), &Prompt{Message: "hi"})
	if KindOf(err) != KindAuth {
		t.Errorf("KindOf() = %q, want auth", KindOf(err))
	}
	if msg := FallbackMessage(err); msg == "" {
		t.Error("FallbackMessage() should not be empty")
	}
}
