package quizgen

import (
	"context"
	"errors"
	"testing"

	"github.com/abhisek/coursepath/internal/course"
)

type fakeRemote struct {
	fetched   *course.Quiz
	fetchErr  error
	generated *course.Quiz
	genErr    error
	genCalls  int
}

func (f *fakeRemote) FetchQuiz(context.Context, string) (*course.Quiz, error) {
	return f.fetched, f.fetchErr
}

func (f *fakeRemote) GenerateQuiz(context.Context, string, string) (*course.Quiz, error) {
	f.genCalls++
	return f.generated, f.genErr
}

func TestAcquire_Persisted(t *testing.T) {
	want := &course.Quiz{ID: "quiz-slices"}
	r := &fakeRemote{fetched: want}
	got := NewSource(r, nil).Acquire(context.Background(), "go-basics", testCourse().Lectures[1])

	if got.Quiz != want || got.Fallback {
		t.Errorf("Acquire = %+v, want persisted quiz", got)
	}
	if r.genCalls != 0 {
		t.Errorf("genCalls = %d, want 0", r.genCalls)
	}
}

func TestAcquire_GeneratesOnNotFound(t *testing.T) {
	want := &course.Quiz{ID: "gen"}
	r := &fakeRemote{fetchErr: course.ErrNotFound, generated: want}
	got := NewSource(r, nil).Acquire(context.Background(), "go-basics", testCourse().Lectures[1])

	if got.Quiz != want || got.Fallback || got.Err != nil {
		t.Errorf("Acquire = %+v, want generated quiz", got)
	}
}

func TestAcquire_FallsBackToPlaceholder(t *testing.T) {
	r := &fakeRemote{fetchErr: course.ErrNotFound, genErr: errors.New("llm down")}
	lec := testCourse().Lectures[1]
	got := NewSource(r, nil).Acquire(context.Background(), "go-basics", lec)

	if !got.Fallback {
		t.Fatal("expected fallback")
	}
	if got.Err == nil {
		t.Error("expected the generation error to be reported")
	}
	if got.Quiz.ID != "fallback-slices" {
		t.Errorf("Quiz.ID = %q, want fallback-slices", got.Quiz.ID)
	}
	if len(got.Quiz.Questions) == 0 {
		t.Error("placeholder quiz has no questions")
	}
}
