package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/coursepath/internal/store"
)

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockJSON(map[string]int{"b": 2}),
	)

	resp1, err := mock.Generate(context.Background(), UserPrompt("", "first"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` || resp1.Usage.InputTokens != 10 {
		t.Errorf("first response = %s %+v", resp1.Content, resp1.Usage)
	}

	resp2, err := mock.Generate(context.Background(), UserPrompt("", "second"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Errorf("second response = %s", resp2.Content)
	}
	if mock.CallCount() != 2 || mock.Calls[1].Messages[0].Content != "second" {
		t.Errorf("Calls = %+v", mock.Calls)
	}
}

func TestMockProvider_EmptyQueue(t *testing.T) {
	_, err := NewMockProvider().Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got %T", err)
	}
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	mock := NewMockProvider(MockJSON(map[string]any{"prompt": "x"}))
	_, err := mock.Generate(context.Background(), Request{Schema: answerSchema()})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T", err)
	}
}

type recordingEvents struct {
	store.EventRepo
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func TestLoggingProvider_RecordsEvent(t *testing.T) {
	events := &recordingEvents{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"ok":true}`),
		Usage:   Usage{InputTokens: 30, OutputTokens: 12},
	})
	p := WithLogging(mock, events, nil)

	ctx := WithPurpose(context.Background(), PurposeQuizGen)
	if _, err := p.Generate(ctx, UserPrompt("sys", "Lecture: Channels")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events.events) != 1 {
		t.Fatalf("events = %d, want 1", len(events.events))
	}
	e := events.events[0]
	if e.Purpose != PurposeQuizGen || !e.Success || e.InputTokens != 30 {
		t.Errorf("event = %+v", e)
	}
	if !strings.Contains(e.RequestBody, "Lecture: Channels") || !strings.Contains(e.RequestBody, "[system]") {
		t.Errorf("RequestBody = %q", e.RequestBody)
	}
	if e.ResponseBody != `{"ok":true}` {
		t.Errorf("ResponseBody = %q", e.ResponseBody)
	}
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	events := &recordingEvents{}
	p := WithLogging(NewMockProvider(), events, nil)

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if len(events.events) != 1 || events.events[0].Success || events.events[0].ErrorMessage == "" {
		t.Errorf("events = %+v", events.events)
	}
	if events.events[0].Purpose != "unknown" {
		t.Errorf("Purpose = %q, want unknown", events.events[0].Purpose)
	}
}

func TestLoggingProvider_EventErrorIgnored(t *testing.T) {
	events := &recordingEvents{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(MockJSON(map[string]int{})), events, nil)

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Errorf("event write failure leaked into the request: %v", err)
	}
}

func TestNewProvider(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Provider = ProviderNone
	if _, err := NewProvider(context.Background(), cfg, nil, nil); !errors.Is(err, ErrDisabled) {
		t.Errorf("none provider err = %v, want ErrDisabled", err)
	}

	cfg.Provider = "mock"
	p, err := NewProvider(context.Background(), cfg, nil, nil)
	if err != nil || p.ModelID() != "mock" {
		t.Errorf("mock provider = %v, %v", p, err)
	}

	cfg.Provider = "openai"
	cfg.OpenAI.APIKey = "k"
	p, err = NewProvider(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("openai provider: %v", err)
	}
	if _, ok := p.(*RetryProvider); !ok {
		t.Errorf("provider type = %T, want *RetryProvider", p)
	}

	cfg.Provider = "carrier-pigeon"
	if _, err := NewProvider(context.Background(), cfg, nil, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}
