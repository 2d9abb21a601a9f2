package course

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/mod/semver"
)

var validate = validator.New()

// ValidationError lists every structural problem found in a course or quiz.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid course definition:\n  %s", strings.Join(e.Problems, "\n  "))
}

// Validate performs field and structural checks on the course.
func (c *Course) Validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		errs = append(errs, fieldErrors(err)...)
	}

	if c.Version != "" && !semver.IsValid(c.Version) {
		errs = append(errs, fmt.Sprintf("version %q is not a semantic version (want e.g. v1.0.0)", c.Version))
	}

	seen := make(map[string]bool, len(c.Lectures))
	quizzes := make(map[string]string)
	for i, l := range c.Lectures {
		if l.ID != "" && seen[l.ID] {
			errs = append(errs, fmt.Sprintf("duplicate lecture ID: %q", l.ID))
		}
		seen[l.ID] = true

		if l.Index != i {
			errs = append(errs, fmt.Sprintf("lecture %q has index %d but is at position %d", l.ID, l.Index, i))
		}

		if l.QuizID != "" {
			if owner, ok := quizzes[l.QuizID]; ok {
				errs = append(errs, fmt.Sprintf("quiz %q is attached to both %q and %q", l.QuizID, owner, l.ID))
			}
			quizzes[l.QuizID] = l.ID
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

// Validate checks the quiz fields and that every correct index points at an option.
func (q *Quiz) Validate() error {
	var errs []string

	if err := validate.Struct(q); err != nil {
		errs = append(errs, fieldErrors(err)...)
	}

	if q.PassThreshold != 0 && q.PassThreshold != PassThreshold {
		errs = append(errs, fmt.Sprintf("pass threshold %d is not supported (every quiz passes at %d)", q.PassThreshold, PassThreshold))
	}

	for i, qu := range q.Questions {
		if qu.Correct >= len(qu.Options) {
			errs = append(errs, fmt.Sprintf("question %d: correct option %d out of range (%d options)", i+1, qu.Correct, len(qu.Options)))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

// SameMajor reports whether two course versions share a major version.
func SameMajor(a, b string) bool {
	if !semver.IsValid(a) || !semver.IsValid(b) {
		return a == b
	}
	return semver.Major(a) == semver.Major(b)
}

func fieldErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s: failed %q check", fe.Namespace(), fe.Tag()))
	}
	return out
}
