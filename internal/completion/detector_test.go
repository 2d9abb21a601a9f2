package completion

import (
	"testing"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/progress"
)

func threeLectureCourse() *course.Course {
	return &course.Course{
		ID:      "c1",
		Version: "v1.0.0",
		Lectures: []course.LectureRef{
			{ID: "L0", Index: 0},
			{ID: "L1", Index: 1},
			{ID: "L2", Index: 2},
		},
	}
}

func TestDetector_SkippedLectureWithholdsSignal(t *testing.T) {
	c := threeLectureCourse()
	s := progress.NewStore(c, "u1")
	d := New(c)
	fired := 0
	d.Subscribe(func(CourseCompleted) { fired++ })
	s.Subscribe(func(r progress.Record) { d.Observe(r) })

	s.MarkLectureComplete("L0")
	r := s.MarkLectureComplete("L2")

	if r.Percent != 67 {
		t.Errorf("Percent = %d, want 67", r.Percent)
	}
	if fired != 0 {
		t.Errorf("fired = %d, want 0", fired)
	}
}

func TestDetector_PercentAloneIsNotEnough(t *testing.T) {
	c := threeLectureCourse()
	d := New(c)
	r := progress.Record{
		CourseID:            "c1",
		CompletedLectureIDs: progress.NewIDSet("L0", "L1", "other"),
		Percent:             100,
	}
	if d.Observe(r) {
		t.Error("should not fire while L2 is incomplete")
	}
}

func TestDetector_FiresExactlyOnce(t *testing.T) {
	c := threeLectureCourse()
	s := progress.NewStore(c, "u1")
	d := New(c)
	var events []CourseCompleted
	d.Subscribe(func(ev CourseCompleted) { events = append(events, ev) })
	s.Subscribe(func(r progress.Record) { d.Observe(r) })

	s.MarkLectureComplete("L0")
	s.MarkLectureComplete("L1")
	s.MarkLectureComplete("L2")
	s.MarkQuizComplete("Q-extra")
	d.Observe(s.Snapshot())

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].LearnerID != "u1" || events[0].CourseID != "c1" {
		t.Errorf("event = %+v", events[0])
	}
	if !d.Fired() {
		t.Error("Fired() = false, want true")
	}
}

func TestDetector_ResetRearms(t *testing.T) {
	c := threeLectureCourse()
	d := New(c)
	done := progress.Record{CompletedLectureIDs: progress.NewIDSet("L0", "L1", "L2"), Percent: 100}

	if !d.Observe(done) {
		t.Fatal("expected first observe to fire")
	}
	if d.Observe(done) {
		t.Fatal("second observe should be suppressed")
	}

	d.Reset(nil)
	if !d.Observe(done) {
		t.Error("expected fire after reset")
	}
}

func TestDetector_ResetWithNewCourse(t *testing.T) {
	d := New(threeLectureCourse())
	d.Observe(progress.Record{CompletedLectureIDs: progress.NewIDSet("L0", "L1", "L2"), Percent: 100})

	other := &course.Course{ID: "c2", Version: "v1.0.0", Lectures: []course.LectureRef{{ID: "X0"}}}
	d.Reset(other)

	if d.Observe(progress.Record{CompletedLectureIDs: progress.NewIDSet("L0", "L1", "L2"), Percent: 100}) {
		t.Error("old course's lectures should not complete the new course")
	}
	if !d.Observe(progress.Record{CompletedLectureIDs: progress.NewIDSet("X0"), Percent: 100}) {
		t.Error("expected fire for the new course")
	}
}

func TestIsComplete_EmptyCourse(t *testing.T) {
	c := &course.Course{ID: "empty", Version: "v1.0.0"}
	r := progress.Load(c, "u1", nil)
	if IsComplete(c, r) {
		t.Error("empty course should never be complete")
	}
}
