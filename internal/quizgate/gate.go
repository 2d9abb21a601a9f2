package quizgate

import (
	"fmt"
	"time"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/progress"
)

// Marker is the slice of the progress store the gate writes to on a pass.
type Marker interface {
	MarkQuizComplete(quizID string) progress.Record
	MarkLectureComplete(lectureID string) progress.Record
	IsLectureComplete(lectureID string) bool
}

// Result is the outcome of one submitted attempt.
type Result struct {
	Score   int
	Outcome Outcome
	Correct int
	Total   int
	Attempt int
}

// Attempt is the analytics record of a submitted attempt.
type Attempt struct {
	QuizID      string    `json:"quizId"`
	LectureID   string    `json:"lectureId"`
	CourseID    string    `json:"courseId"`
	Score       int       `json:"score"`
	Passed      bool      `json:"passed"`
	Answers     []int     `json:"answers"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Gate governs a single quiz's attempts for one learner and its effect on
// progress. Passed is terminal; Failed returns to InProgress only through
// Retry, which discards every prior answer.
type Gate struct {
	quiz      *course.Quiz
	lectureID string
	marker    Marker

	state    State
	answers  []int
	attempts int
	last     *Result
}

// New creates a gate in NotStarted for the quiz owned by lectureID.
func New(quiz *course.Quiz, lectureID string, marker Marker) *Gate {
	return &Gate{
		quiz:      quiz,
		lectureID: lectureID,
		marker:    marker,
		state:     StateNotStarted,
	}
}

// Quiz returns the gated quiz.
func (g *Gate) Quiz() *course.Quiz { return g.quiz }

// LectureID returns the owning lecture.
func (g *Gate) LectureID() string { return g.lectureID }

// State returns the current state.
func (g *Gate) State() State { return g.state }

// Attempts returns the number of submitted attempts.
func (g *Gate) Attempts() int { return g.attempts }

// LastResult returns the most recent result, or nil before any submission.
func (g *Gate) LastResult() *Result { return g.last }

// Answers returns a copy of the answers selected in the current attempt.
func (g *Gate) Answers() []int {
	out := make([]int, len(g.answers))
	copy(out, g.answers)
	return out
}

// Start moves NotStarted to InProgress.
func (g *Gate) Start() error {
	if g.state != StateNotStarted {
		return transitionError("start", g.state)
	}
	g.state = StateInProgress
	g.answers = blankAnswers(len(g.quiz.Questions))
	return nil
}

// Answer records the selected option for one question of the current attempt.
func (g *Gate) Answer(question, option int) error {
	if g.state != StateInProgress {
		return transitionError("answer", g.state)
	}
	if question < 0 || question >= len(g.quiz.Questions) {
		return fmt.Errorf("question %d out of range (%d questions)", question, len(g.quiz.Questions))
	}
	if option < 0 || option >= len(g.quiz.Questions[question].Options) {
		return fmt.Errorf("option %d out of range for question %d", option, question)
	}
	g.answers[question] = option
	return nil
}

// Submit scores answers and moves InProgress to Passed or Failed. A nil
// answers slice submits the answers recorded through Answer. On a pass the
// quiz is marked complete, and so is its lecture if it was not already.
func (g *Gate) Submit(answers []int) (Result, error) {
	if g.state != StateInProgress {
		return Result{}, transitionError("submit", g.state)
	}
	if answers == nil {
		answers = g.answers
	}
	answers = fitAnswers(answers, len(g.quiz.Questions))

	correct, score := Score(g.quiz, answers)
	g.attempts++
	res := Result{
		Score:   score,
		Outcome: Classify(score),
		Correct: correct,
		Total:   len(g.quiz.Questions),
		Attempt: g.attempts,
	}
	g.answers = answers
	g.last = &res

	if res.Outcome == OutcomePassed {
		g.state = StatePassed
		if g.marker != nil {
			g.marker.MarkQuizComplete(g.quiz.ID)
			if !g.marker.IsLectureComplete(g.lectureID) {
				g.marker.MarkLectureComplete(g.lectureID)
			}
		}
		return res, nil
	}

	g.state = StateFailed
	return res, nil
}

// Retry moves Failed back to InProgress and clears all answers.
func (g *Gate) Retry() error {
	if g.state != StateFailed {
		return transitionError("retry", g.state)
	}
	g.state = StateInProgress
	g.answers = blankAnswers(len(g.quiz.Questions))
	return nil
}

// Attempt returns the analytics record for the last submission.
func (g *Gate) Attempt(courseID string, at time.Time) Attempt {
	a := Attempt{
		QuizID:      g.quiz.ID,
		LectureID:   g.lectureID,
		CourseID:    courseID,
		Answers:     g.Answers(),
		SubmittedAt: at,
	}
	if g.last != nil {
		a.Score = g.last.Score
		a.Passed = g.last.Outcome == OutcomePassed
	}
	return a
}

func blankAnswers(n int) []int {
	a := make([]int, n)
	for i := range a {
		a[i] = Unanswered
	}
	return a
}

// fitAnswers copies answers into a slice of exactly n entries. Missing
// entries are Unanswered and extras are dropped.
func fitAnswers(answers []int, n int) []int {
	out := blankAnswers(n)
	copy(out, answers)
	return out
}
