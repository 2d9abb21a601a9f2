package progress

import (
	"reflect"
	"testing"
)

func TestReduce(t *testing.T) {
	c := testCourse(4)
	state := Record{LearnerID: "u1", CourseID: c.ID}

	state = Reduce(c, state, LectureCompleted{LectureID: "L1"})
	if state.Percent != 25 || !state.LectureComplete("L1") {
		t.Errorf("after L1: percent = %d, lectures = %v", state.Percent, state.CompletedLectureIDs)
	}

	before := state
	for _, ev := range []Event{
		LectureCompleted{LectureID: "L1"},
		LectureCompleted{LectureID: "L9"},
		LectureCompleted{LectureID: ""},
		QuizCompleted{QuizID: ""},
		QuizCompleted{QuizID: "   "},
		LectureCompleted{LectureID: " \t"},
	} {
		state = Reduce(c, state, ev)
	}
	if Changed(before, state) {
		t.Errorf("no-op events changed state: %v -> %v", before, state)
	}

	state = Reduce(c, state, QuizCompleted{QuizID: "Q1"})
	if !state.QuizComplete("Q1") {
		t.Error("quiz not recorded")
	}
	if state.CompletedLectureIDs.Len() != 1 || state.Percent != 25 {
		t.Errorf("QuizCompleted touched lectures: %v, percent %d", state.CompletedLectureIDs, state.Percent)
	}
	if !Changed(before, state) {
		t.Error("Changed = false after quiz completion")
	}
}

func TestIDSet_WithBlank(t *testing.T) {
	s := NewIDSet("Q1")
	for _, id := range []string{"", " ", "\t\n"} {
		if got := s.With(id); got.Len() != 1 {
			t.Errorf("With(%q) = %v, want unchanged", id, got)
		}
	}
	if got := NewIDSet(" ", "Q2", ""); !reflect.DeepEqual(got, IDSet{"Q2"}) {
		t.Errorf("NewIDSet = %v, want [Q2]", got)
	}
}
