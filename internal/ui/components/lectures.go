package components

import (
	"fmt"
	"strings"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/progress"
	"github.com/abhisek/coursepath/internal/ui/theme"
)

// LectureList renders a course outline with completion and lock markers.
type LectureList struct {
	Course   *course.Course
	Record   progress.Record
	Selected int
}

// View renders one line per lecture.
func (l LectureList) View() string {
	var b strings.Builder
	unlocked := progress.UnlockStates(l.Course, l.Record)

	for i, lec := range l.Course.Lectures {
		title := lec.Title
		if title == "" {
			title = lec.ID
		}
		marker := "  "
		if i == l.Selected {
			marker = "▸ "
		}

		var status string
		switch {
		case l.Record.LectureComplete(lec.ID):
			status = "✓"
		case !unlocked[i]:
			status = "🔒"
		default:
			status = "·"
		}
		quiz := ""
		if lec.HasQuiz() {
			quiz = " [quiz]"
			if l.Record.QuizComplete(lec.QuizID) {
				quiz = " [quiz ✓]"
			}
		}

		line := fmt.Sprintf("%s%2d. %s %s%s", marker, i+1, status, title, quiz)
		switch {
		case i == l.Selected:
			line = theme.Current.Render(line)
		case l.Record.LectureComplete(lec.ID):
			line = theme.Done.Render(line)
		case !unlocked[i]:
			line = theme.Locked.Render(line)
		default:
			line = theme.Body.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
