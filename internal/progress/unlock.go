package progress

import "github.com/abhisek/coursepath/internal/course"

// IsUnlocked reports whether the lecture at index is accessible: the first
// lecture always is, every other one only once its predecessor is complete.
func IsUnlocked(c *course.Course, r Record, index int) bool {
	if index == 0 {
		return true
	}
	prev, ok := c.Lecture(index - 1)
	if !ok {
		return false
	}
	if _, ok := c.Lecture(index); !ok {
		return false
	}
	return r.LectureComplete(prev.ID)
}

// ResumeIndex returns the index right after the furthest completed lecture,
// capped at the last index. It returns 0 when nothing is complete.
func ResumeIndex(c *course.Course, r Record) int {
	if c == nil || len(c.Lectures) == 0 {
		return 0
	}
	furthest := -1
	for i, l := range c.Lectures {
		if r.LectureComplete(l.ID) {
			furthest = i
		}
	}
	next := furthest + 1
	if last := len(c.Lectures) - 1; next > last {
		return last
	}
	return next
}

// UnlockStates returns IsUnlocked for every lecture in course order.
func UnlockStates(c *course.Course, r Record) []bool {
	out := make([]bool, len(c.Lectures))
	for i := range c.Lectures {
		out[i] = IsUnlocked(c, r, i)
	}
	return out
}
