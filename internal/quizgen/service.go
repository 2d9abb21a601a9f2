package quizgen

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/coursepath/internal/course"
)

// ErrGenerationDisabled is returned when the service has no generator.
var ErrGenerationDisabled = errors.New("quiz generation disabled")

// QuizStore is the persistence the service needs.
type QuizStore interface {
	ByLecture(ctx context.Context, lectureID string) (*course.Quiz, error)
	Save(ctx context.Context, q *course.Quiz) error
}

// Service serves persisted quizzes and generates missing ones.
type Service struct {
	quizzes QuizStore
	gen     Generator
	logger  *zap.Logger
}

// NewService creates a Service. gen may be nil to disable generation.
func NewService(quizzes QuizStore, gen Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{quizzes: quizzes, gen: gen, logger: logger}
}

// Get returns the persisted quiz for a lecture, or course.ErrNotFound.
func (s *Service) Get(ctx context.Context, lectureID string) (*course.Quiz, error) {
	return s.quizzes.ByLecture(ctx, lectureID)
}

// Generate returns the lecture's persisted quiz, generating and saving one
// first if none exists. With regenerate set, an existing quiz is replaced
// and its prompts are passed along so the new quiz does not repeat them.
func (s *Service) Generate(ctx context.Context, c *course.Course, lectureID string, regenerate bool) (*course.Quiz, error) {
	idx := c.LectureIndex(lectureID)
	if idx < 0 {
		return nil, fmt.Errorf("lecture %s in course %s: %w", lectureID, c.ID, course.ErrNotFound)
	}
	lecture := c.Lectures[idx]

	existing, err := s.quizzes.ByLecture(ctx, lectureID)
	switch {
	case err == nil && !regenerate:
		return existing, nil
	case err != nil && !errors.Is(err, course.ErrNotFound):
		return nil, err
	}

	if s.gen == nil {
		return nil, ErrGenerationDisabled
	}

	input := Input{Course: c, Lecture: lecture}
	if existing != nil {
		for _, q := range existing.Questions {
			input.PriorPrompts = append(input.PriorPrompts, q.Prompt)
		}
		if lecture.QuizID == "" {
			input.Lecture.QuizID = existing.ID
		}
	}

	q, err := s.gen.Generate(ctx, input)
	if err != nil {
		s.logger.Warn("quiz generation failed",
			zap.String("course", c.ID),
			zap.String("lecture", lectureID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.quizzes.Save(ctx, q); err != nil {
		return nil, fmt.Errorf("save generated quiz: %w", err)
	}
	s.logger.Info("quiz generated",
		zap.String("course", c.ID),
		zap.String("lecture", lectureID),
		zap.String("quiz", q.ID),
		zap.Int("questions", len(q.Questions)),
	)
	return q, nil
}
