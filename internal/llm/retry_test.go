package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     150 * time.Millisecond,
		Multiplier:  2.0,
	}
}

// newTestRetry returns a RetryProvider that records waits instead of sleeping.
func newTestRetry(inner Provider) (*RetryProvider, *[]time.Duration) {
	var waits []time.Duration
	p := WithRetry(inner, retryConfig(), nil).(*RetryProvider)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return p, &waits
}

func down() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"ok":true}`)})
	p, waits := newTestRetry(mock)

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.CallCount() != 1 || len(*waits) != 0 {
		t.Errorf("calls = %d, waits = %v; want 1 call, no waits", mock.CallCount(), *waits)
	}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(down(), MockResponse{Content: json.RawMessage(`{"ok":true}`)})
	p, waits := newTestRetry(mock)

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Errorf("Content = %s", resp.Content)
	}
	if len(*waits) != 1 {
		t.Errorf("waits = %v, want one", *waits)
	}
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	mock := NewMockProvider(down(), down(), down())
	p, waits := newTestRetry(mock)

	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got %T", err)
	}
	if mock.CallCount() != 3 {
		t.Errorf("calls = %d, want 3", mock.CallCount())
	}
	// No sleep after the final attempt.
	if len(*waits) != 2 {
		t.Errorf("waits = %v, want two", *waits)
	}
}

func TestRetry_BackoffCappedWithJitter(t *testing.T) {
	mock := NewMockProvider(down(), down(), down())
	p, waits := newTestRetry(mock)
	p.Generate(context.Background(), Request{})

	limits := []time.Duration{100 * time.Millisecond, 150 * time.Millisecond}
	for i, w := range *waits {
		lo := time.Duration(float64(limits[i]) * 0.8)
		hi := time.Duration(float64(limits[i]) * 1.2)
		if w < lo || w > hi {
			t.Errorf("wait[%d] = %v, want within [%v, %v]", i, w, lo, hi)
		}
	}
}

func TestRetry_MaxTokensNotRetried(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{`)}})
	p, _ := newTestRetry(mock)

	_, err := p.Generate(context.Background(), Request{})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %T", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.CallCount())
	}
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	bad := MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}}
	mock := NewMockProvider(bad, bad, MockResponse{Content: json.RawMessage(`{}`)})
	p, _ := newTestRetry(mock)

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.CallCount())
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	mock := NewMockProvider(down(), down(), MockResponse{Content: json.RawMessage(`{}`)})
	p, _ := newTestRetry(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.CallCount())
	}
}

func TestRetry_RateLimitRespectsRetryAfter(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 2 * time.Second, Err: errors.New("429")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p, waits := newTestRetry(mock)

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*waits) != 1 || (*waits)[0] != 2*time.Second {
		t.Errorf("waits = %v, want [2s]", *waits)
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	p := WithRetry(NewMockProvider(), retryConfig(), nil)
	if p.ModelID() != "mock" {
		t.Errorf("ModelID() = %q, want mock", p.ModelID())
	}
}
