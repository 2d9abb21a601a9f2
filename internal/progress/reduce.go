package progress

import "github.com/abhisek/coursepath/internal/course"

// Event is a progress transition applied by Reduce.
type Event interface {
	isEvent()
}

// LectureCompleted marks a lecture complete.
type LectureCompleted struct {
	LectureID string
}

// QuizCompleted marks a quiz complete. It does not complete the owning
// lecture; callers that pass a quiz apply LectureCompleted separately.
type QuizCompleted struct {
	QuizID string
}

func (LectureCompleted) isEvent() {}
func (QuizCompleted) isEvent()    {}

// Reduce applies ev to state and returns the resulting record. Unknown
// lecture IDs and blank IDs leave the state unchanged, which keeps
// CompletedLectureIDs a subset of the course's lectures.
func Reduce(c *course.Course, state Record, ev Event) Record {
	switch e := ev.(type) {
	case LectureCompleted:
		if blankID(e.LectureID) || !c.HasLecture(e.LectureID) {
			return state
		}
		if state.CompletedLectureIDs.Contains(e.LectureID) {
			return state
		}
		state.CompletedLectureIDs = state.CompletedLectureIDs.With(e.LectureID)
		state.Percent = CoursePercent(c, state.CompletedLectureIDs)
	case QuizCompleted:
		if blankID(e.QuizID) || state.CompletedQuizIDs.Contains(e.QuizID) {
			return state
		}
		state.CompletedQuizIDs = state.CompletedQuizIDs.With(e.QuizID)
	}
	return state
}

// Changed reports whether b differs from a in its progress sets.
func Changed(a, b Record) bool {
	return !equalSets(a.CompletedLectureIDs, b.CompletedLectureIDs) ||
		!equalSets(a.CompletedQuizIDs, b.CompletedQuizIDs)
}

func equalSets(a, b IDSet) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
