package progress

import (
	"fmt"

	"github.com/abhisek/coursepath/internal/course"
)

func testCourse(n int) *course.Course {
	c := &course.Course{ID: "c1", Version: "v1.0.0"}
	for i := 0; i < n; i++ {
		c.Lectures = append(c.Lectures, course.LectureRef{ID: fmt.Sprintf("L%d", i), Index: i})
	}
	return c
}
