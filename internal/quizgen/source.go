package quizgen

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/coursepath/internal/course"
)

// Remote is the quiz half of the remote store.
type Remote interface {
	FetchQuiz(ctx context.Context, lectureID string) (*course.Quiz, error)
	GenerateQuiz(ctx context.Context, courseID, lectureID string) (*course.Quiz, error)
}

// Acquired is the outcome of Source.Acquire.
type Acquired struct {
	Quiz *course.Quiz

	// Fallback is set when Quiz is the built-in placeholder; Err then holds
	// the reason generation failed.
	Fallback bool
	Err      error
}

// Source acquires a lecture's quiz: the persisted quiz, else a freshly
// generated one, else the deterministic placeholder.
type Source struct {
	remote Remote
	logger *zap.Logger
}

// NewSource creates a Source.
func NewSource(remote Remote, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{remote: remote, logger: logger}
}

// Acquire never fails: any error ends in the placeholder quiz.
func (s *Source) Acquire(ctx context.Context, courseID string, lecture course.LectureRef) Acquired {
	q, err := s.remote.FetchQuiz(ctx, lecture.ID)
	if err == nil {
		return Acquired{Quiz: q}
	}
	if !errors.Is(err, course.ErrNotFound) {
		s.logger.Warn("fetch quiz failed", zap.String("lecture", lecture.ID), zap.Error(err))
	}

	q, err = s.remote.GenerateQuiz(ctx, courseID, lecture.ID)
	if err == nil {
		return Acquired{Quiz: q}
	}

	s.logger.Warn("quiz generation failed, using placeholder",
		zap.String("course", courseID),
		zap.String("lecture", lecture.ID),
		zap.Error(err),
	)
	return Acquired{
		Quiz:     course.Placeholder(lecture),
		Fallback: true,
		Err:      fmt.Errorf("generate quiz for %s: %w", lecture.ID, err),
	}
}
