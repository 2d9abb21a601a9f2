package cmd

import (
	"testing"

	"github.com/abhisek/coursepath/internal/store"
)

func TestFilterEvents(t *testing.T) {
	ev := func(id int64, purpose string, ok bool) store.LLMEvent {
		e := store.LLMEvent{ID: id}
		e.Purpose = purpose
		e.Success = ok
		return e
	}
	events := []store.LLMEvent{
		ev(5, "quiz-gen", false),
		ev(4, "quiz-gen", true),
		ev(3, "other", false),
		ev(2, "quiz-gen", false),
	}

	got := filterEvents(events, "quiz-gen", true, 0)
	if len(got) != 2 || got[0].ID != 5 || got[1].ID != 2 {
		t.Errorf("filterEvents(quiz-gen, failed) = %+v", got)
	}

	got = filterEvents(events, "", true, 1)
	if len(got) != 1 || got[0].ID != 5 {
		t.Errorf("filterEvents(failed, limit 1) = %+v", got)
	}

	got = filterEvents(events, "other", false, 0)
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("filterEvents(other) = %+v", got)
	}
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		usd  float64
		want string
	}{
		{0.0012, "$0.0012"},
		{0.5, "$0.50"},
		{12.345, "$12.35"},
	}
	for _, tt := range tests {
		if got := formatCost(tt.usd); got != tt.want {
			t.Errorf("formatCost(%v) = %q, want %q", tt.usd, got, tt.want)
		}
	}
}
