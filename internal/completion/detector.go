package completion

import (
	"sync"
	"time"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/progress"
)

// CourseCompleted is emitted once per session when a learner finishes a course.
type CourseCompleted struct {
	LearnerID string
	CourseID  string
	At        time.Time
}

// Detector watches progress snapshots and fires CourseCompleted the first
// time every lecture in the course is complete. After firing it stays
// silent until Reset.
type Detector struct {
	mu     sync.Mutex
	course *course.Course
	fired  bool
	subs   []func(CourseCompleted)
	now    func() time.Time
}

// New creates a detector for c.
func New(c *course.Course) *Detector {
	return &Detector{course: c, now: time.Now}
}

// Subscribe registers fn to receive the completion signal.
func (d *Detector) Subscribe(fn func(CourseCompleted)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, fn)
}

// Fired reports whether the signal has been emitted since the last reset.
func (d *Detector) Fired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired
}

// Reset re-arms the detector, optionally for a different course.
func (d *Detector) Reset(c *course.Course) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c != nil {
		d.course = c
	}
	d.fired = false
}

// Observe checks r and fires the signal if the course just became complete.
// It returns true only on the call that fired.
func (d *Detector) Observe(r progress.Record) bool {
	d.mu.Lock()
	if d.fired || !IsComplete(d.course, r) {
		d.mu.Unlock()
		return false
	}
	d.fired = true
	ev := CourseCompleted{LearnerID: r.LearnerID, CourseID: r.CourseID, At: d.now()}
	subs := make([]func(CourseCompleted), len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
	return true
}

// IsComplete is the authoritative completion test: percent at 100 and every
// lecture id, in course order, present in the completed set. The percent
// alone is not enough because it is rounded.
func IsComplete(c *course.Course, r progress.Record) bool {
	if r.Percent < 100 {
		return false
	}
	for _, id := range c.LectureIDs() {
		if !r.LectureComplete(id) {
			return false
		}
	}
	return true
}
