package course

import "errors"

// ErrNotFound is returned when a course, lecture or quiz does not exist.
var ErrNotFound = errors.New("not found")

// PassThreshold is the minimum score percentage for a quiz attempt to pass.
const PassThreshold = 60

// Course is an ordered sequence of lectures. Lecture indexes are significant
// and immutable for a given course version.
type Course struct {
	ID       string       `json:"id" yaml:"id" validate:"required"`
	Version  string       `json:"version" yaml:"version" validate:"required"`
	Title    string       `json:"title" yaml:"title"`
	Lectures []LectureRef `json:"lectures" yaml:"lectures" validate:"dive"`
}

// LectureRef is a single lecture position within a course.
type LectureRef struct {
	ID      string `json:"id" yaml:"id" validate:"required"`
	Index   int    `json:"index" yaml:"index" validate:"min=0"`
	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary,omitempty" yaml:"summary"`
	QuizID  string `json:"quizId,omitempty" yaml:"quiz_id"`
}

// HasQuiz reports whether the lecture is gated behind a quiz.
func (l LectureRef) HasQuiz() bool {
	return l.QuizID != ""
}

// TotalLectures returns the lecture count used as the percent denominator.
// A course with zero lectures counts as one.
func (c *Course) TotalLectures() int {
	if c == nil || len(c.Lectures) == 0 {
		return 1
	}
	return len(c.Lectures)
}

// Lecture returns the lecture at index i.
func (c *Course) Lecture(i int) (LectureRef, bool) {
	if c == nil || i < 0 || i >= len(c.Lectures) {
		return LectureRef{}, false
	}
	return c.Lectures[i], true
}

// LectureIndex returns the index of the lecture with the given ID, or -1.
func (c *Course) LectureIndex(id string) int {
	if c == nil {
		return -1
	}
	for i, l := range c.Lectures {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// LectureIDs returns the lecture IDs in course order.
func (c *Course) LectureIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.Lectures))
	for i, l := range c.Lectures {
		ids[i] = l.ID
	}
	return ids
}

// HasLecture reports whether id belongs to the course.
func (c *Course) HasLecture(id string) bool {
	return c.LectureIndex(id) >= 0
}
