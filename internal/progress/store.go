package progress

import (
	"sync"
	"time"

	"github.com/abhisek/coursepath/internal/course"
)

// Store owns the progress record for a single course view. It applies
// events through Reduce and notifies subscribers after every change.
type Store struct {
	course *course.Course

	mu     sync.RWMutex
	record Record
	subs   []func(Record)
}

// NewStore creates an empty store for c. Call Load to seed it.
func NewStore(c *course.Course, learnerID string) *Store {
	return &Store{
		course: c,
		record: Load(c, learnerID, nil),
	}
}

// Course returns the course the store tracks.
func (s *Store) Course() *course.Course {
	return s.course
}

// Load replaces the current record with one built from seed and returns it.
// Subscribers are not notified; loading is not a mutation.
func (s *Store) Load(seed *Seed) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = Load(s.course, s.record.LearnerID, seed)
	return s.record
}

// Replace installs an already-validated record, e.g. the result of Merge.
func (s *Store) Replace(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = r
}

// Snapshot returns the current record.
func (s *Store) Snapshot() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// Subscribe registers fn to be called with the new record after each change.
func (s *Store) Subscribe(fn func(Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// MarkLectureComplete adds the lecture to the completed set. Repeated calls
// and ids outside the course are no-ops.
func (s *Store) MarkLectureComplete(lectureID string) Record {
	return s.apply(LectureCompleted{LectureID: lectureID})
}

// MarkQuizComplete adds the quiz to the completed set.
func (s *Store) MarkQuizComplete(quizID string) Record {
	return s.apply(QuizCompleted{QuizID: quizID})
}

// IsLectureComplete reports whether the lecture is complete.
func (s *Store) IsLectureComplete(lectureID string) bool {
	return s.Snapshot().LectureComplete(lectureID)
}

// MarkSynced records a successful remote acknowledgment.
func (s *Store) MarkSynced(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at.After(s.record.LastSyncedAt) {
		s.record.LastSyncedAt = at
	}
}

func (s *Store) apply(ev Event) Record {
	s.mu.Lock()
	prev := s.record
	next := Reduce(s.course, prev, ev)
	if !Changed(prev, next) {
		s.mu.Unlock()
		return prev
	}
	s.record = next
	subs := make([]func(Record), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}
