package progress

import (
	"math"
	"time"

	"github.com/abhisek/coursepath/internal/course"
)

// Record is one learner's progress through one course. Records are values:
// every mutation produces a new Record and never alters an existing one.
type Record struct {
	LearnerID           string
	CourseID            string
	CompletedLectureIDs IDSet
	CompletedQuizIDs    IDSet

	// Percent is derived from CompletedLectureIDs and the course length.
	Percent int

	// LastSyncedAt is the time of the last successful remote acknowledgment.
	LastSyncedAt time.Time
}

// Payload is the full snapshot pushed to the remote store.
type Payload struct {
	CompletedLectureIDs []string `json:"completedLectureIds" validate:"dive,required"`
	CompletedQuizIDs    []string `json:"completedQuizIds" validate:"dive,required"`
	Percent             int      `json:"percent" validate:"min=0,max=100"`
}

// Payload returns the wire form of the record.
func (r Record) Payload() Payload {
	return Payload{
		CompletedLectureIDs: r.CompletedLectureIDs.Slice(),
		CompletedQuizIDs:    r.CompletedQuizIDs.Slice(),
		Percent:             r.Percent,
	}
}

// LectureComplete reports whether the lecture is in the completed set.
func (r Record) LectureComplete(id string) bool {
	return r.CompletedLectureIDs.Contains(id)
}

// QuizComplete reports whether the quiz is in the completed set.
func (r Record) QuizComplete(id string) bool {
	return r.CompletedQuizIDs.Contains(id)
}

// Percent computes min(100, round(100 * completed / total)) with total
// treated as at least one.
func Percent(completed, total int) int {
	if total < 1 {
		total = 1
	}
	p := int(math.Round(100 * float64(completed) / float64(total)))
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// CoursePercent computes the record's percent against c.
func CoursePercent(c *course.Course, completed IDSet) int {
	return Percent(completed.Len(), c.TotalLectures())
}
