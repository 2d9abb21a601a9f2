package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (f *fakePruner) PruneLLMEvents(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, before)
	return f.n, f.err
}

func (f *fakePruner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestPruneEvents_Cutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &fakePruner{n: 4}
	s := New(p, Options{LLMEventRetention: 48 * time.Hour, Now: func() time.Time { return now }})

	n, err := s.PruneEvents(context.Background())
	if err != nil {
		t.Fatalf("PruneEvents: %v", err)
	}
	if n != 4 {
		t.Errorf("deleted = %d, want 4", n)
	}
	want := now.Add(-48 * time.Hour)
	if len(p.cutoffs) != 1 || !p.cutoffs[0].Equal(want) {
		t.Errorf("cutoffs = %v, want [%v]", p.cutoffs, want)
	}
}

func TestPruneEvents_Disabled(t *testing.T) {
	p := &fakePruner{}
	s := New(p, Options{})

	n, err := s.PruneEvents(context.Background())
	if err != nil || n != 0 {
		t.Errorf("PruneEvents = %d, %v; want 0, nil", n, err)
	}
	if p.calls() != 0 {
		t.Errorf("pruner called %d times, want 0", p.calls())
	}
}

func TestPruneEvents_Error(t *testing.T) {
	p := &fakePruner{err: errors.New("db down")}
	s := New(p, Options{LLMEventRetention: time.Hour})

	if _, err := s.PruneEvents(context.Background()); err == nil {
		t.Error("expected error")
	}
	// The job swallows the error after logging it.
	s.pruneJob()
	if p.calls() != 2 {
		t.Errorf("calls = %d, want 2", p.calls())
	}
}

func TestStart_RunsImmediately(t *testing.T) {
	p := &fakePruner{}
	s := New(p, Options{LLMEventRetention: time.Hour, Interval: time.Hour})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for p.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if p.calls() == 0 {
		t.Error("prune job did not run after Start")
	}
}
