package quizgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/coursepath/internal/course"
)

// Validator checks a generated quiz. Implementations are stateless.
type Validator interface {
	Name() string
	Validate(q *course.Quiz, cfg Config) *ValidationError
}

// ValidationError describes why a generated quiz was rejected.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator checks counts, lengths and the correct-answer index.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *course.Quiz, cfg Config) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...)}
	}

	if len(q.Questions) == 0 {
		return fail("quiz has no questions")
	}
	if cfg.Questions > 0 && len(q.Questions) > cfg.Questions {
		return fail("got %d questions, asked for %d", len(q.Questions), cfg.Questions)
	}
	for i, qq := range q.Questions {
		if strings.TrimSpace(qq.Prompt) == "" {
			return fail("question %d has an empty prompt", i+1)
		}
		if len(qq.Prompt) > 500 {
			return fail("question %d prompt exceeds 500 characters", i+1)
		}
		if len(qq.Options) < 2 {
			return fail("question %d has %d options", i+1, len(qq.Options))
		}
		if cfg.Options > 0 && len(qq.Options) != cfg.Options {
			return fail("question %d has %d options, want %d", i+1, len(qq.Options), cfg.Options)
		}
		if qq.Correct < 0 || qq.Correct >= len(qq.Options) {
			return fail("question %d correct index %d out of range", i+1, qq.Correct)
		}
		for j, opt := range qq.Options {
			if strings.TrimSpace(opt) == "" {
				return fail("question %d option %d is empty", i+1, j+1)
			}
		}
	}
	return nil
}

// DuplicateValidator rejects repeated prompts and repeated options within a
// question, compared case-insensitively.
type DuplicateValidator struct{}

func (v *DuplicateValidator) Name() string { return "duplicate" }

func (v *DuplicateValidator) Validate(q *course.Quiz, _ Config) *ValidationError {
	prompts := make(map[string]bool, len(q.Questions))
	for i, qq := range q.Questions {
		p := normalize(qq.Prompt)
		if prompts[p] {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question %d repeats an earlier prompt", i+1)}
		}
		prompts[p] = true

		opts := make(map[string]bool, len(qq.Options))
		for _, o := range qq.Options {
			n := normalize(o)
			if opts[n] {
				return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question %d repeats option %q", i+1, o)}
			}
			opts[n] = true
		}
	}
	return nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
