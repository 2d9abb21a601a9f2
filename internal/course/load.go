package course

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Bundle is a course definition file: the course plus its authored quizzes.
type Bundle struct {
	Course  Course `yaml:"course"`
	Quizzes []Quiz `yaml:"quizzes"`
}

// LoadFile reads and validates a YAML course bundle. Lecture indexes may be
// omitted in the file; they are assigned from position.
func LoadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML course bundle.
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse course file: %w", err)
	}

	for i := range b.Course.Lectures {
		b.Course.Lectures[i].Index = i
	}

	if err := b.Course.Validate(); err != nil {
		return nil, err
	}

	for i := range b.Quizzes {
		q := &b.Quizzes[i]
		if q.PassThreshold == 0 {
			q.PassThreshold = PassThreshold
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("quiz %q: %w", q.ID, err)
		}
		idx := b.Course.LectureIndex(q.LectureID)
		if idx < 0 {
			return nil, fmt.Errorf("quiz %q references unknown lecture %q", q.ID, q.LectureID)
		}
		if lq := b.Course.Lectures[idx].QuizID; lq == "" {
			b.Course.Lectures[idx].QuizID = q.ID
		} else if lq != q.ID {
			return nil, fmt.Errorf("quiz %q conflicts with lecture %q quiz %q", q.ID, q.LectureID, lq)
		}
	}

	return &b, nil
}
