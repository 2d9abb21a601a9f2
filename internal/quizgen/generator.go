// Package quizgen produces lecture quizzes: generated by an LLM on the
// server, and acquired with a placeholder fallback on the client.
package quizgen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/llm"
)

// Input is the context for generating one lecture's quiz.
type Input struct {
	Course  *course.Course
	Lecture course.LectureRef

	// PriorPrompts are prompts of a quiz being replaced.
	PriorPrompts []string
}

// Generator produces a quiz for a lecture.
type Generator interface {
	Generate(ctx context.Context, input Input) (*course.Quiz, error)
}

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// Generate asks the LLM for a quiz and runs the validator chain on it.
func (g *LLMGenerator) Generate(ctx context.Context, input Input) (*course.Quiz, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuizGen)

	req := llm.UserPrompt(systemPrompt, buildUserMessage(input, g.config))
	req.Schema = QuizSchema
	req.MaxTokens = g.config.MaxTokens
	req.Temperature = g.config.Temperature

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw quizOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	q := &course.Quiz{
		ID:            input.Lecture.QuizID,
		LectureID:     input.Lecture.ID,
		Title:         raw.Title,
		PassThreshold: course.PassThreshold,
		Generated:     true,
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	for _, rq := range raw.Questions {
		q.Questions = append(q.Questions, course.Question{
			Prompt:      rq.Prompt,
			Options:     rq.Options,
			Correct:     rq.Correct,
			Explanation: rq.Explanation,
		})
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(q, g.config); verr != nil {
			return nil, verr
		}
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}
