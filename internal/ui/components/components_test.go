package components

import (
	"strings"
	"testing"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/progress"
	"github.com/abhisek/coursepath/internal/quizgate"
)

func TestParseOption(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"a", 0, true},
		{"C", 2, true},
		{"2", 1, true},
		{"0", 0, false},
		{"", 0, false},
		{"??", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseOption(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseOption(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestOptionLabel(t *testing.T) {
	if OptionLabel(0) != "A" || OptionLabel(3) != "D" {
		t.Errorf("OptionLabel = %q, %q; want A, D", OptionLabel(0), OptionLabel(3))
	}
}

func TestProgressBar_ShowsPercent(t *testing.T) {
	out := NewProgressBar("Go Basics", 67, 40).View()
	if !strings.Contains(out, "67%") {
		t.Errorf("View() = %q, want it to contain 67%%", out)
	}
	if !strings.Contains(NewProgressBar("", 250, 20).View(), "100%") {
		t.Error("percent above 100 should clamp")
	}
}

func TestLectureList(t *testing.T) {
	c := &course.Course{
		ID:      "c1",
		Version: "v1.0.0",
		Lectures: []course.LectureRef{
			{ID: "L0", Index: 0, Title: "Intro"},
			{ID: "L1", Index: 1, Title: "Slices", QuizID: "Q1"},
			{ID: "L2", Index: 2, Title: "Maps"},
		},
	}
	r := progress.Record{CompletedLectureIDs: progress.NewIDSet("L0")}
	out := LectureList{Course: c, Record: r, Selected: 1}.View()

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if !strings.Contains(lines[0], "✓") {
		t.Errorf("completed lecture missing check: %q", lines[0])
	}
	if !strings.Contains(lines[1], "[quiz]") {
		t.Errorf("quiz lecture missing marker: %q", lines[1])
	}
	if !strings.Contains(lines[2], "🔒") {
		t.Errorf("locked lecture missing lock: %q", lines[2])
	}
}

func TestQuizView_AfterSubmit(t *testing.T) {
	q := &course.Quiz{
		Title: "Check",
		Questions: []course.Question{
			{Prompt: "Pick B", Options: []string{"a", "b"}, Correct: 1, Explanation: "B is right."},
		},
	}
	res := quizgate.Result{Score: 0, Outcome: quizgate.OutcomeFailed, Correct: 0, Total: 1}
	out := QuizView{Quiz: q, Answers: []int{0}, Result: &res}.View()

	for _, want := range []string{"Pick B", "A) a", "B) b", "B is right.", "0/1 correct"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q:\n%s", want, out)
		}
	}
}
