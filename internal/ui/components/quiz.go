package components

import (
	"fmt"
	"strings"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/quizgate"
	"github.com/abhisek/coursepath/internal/ui/theme"
)

// OptionLabel returns the letter for option i: A, B, C...
func OptionLabel(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

// ParseOption maps a letter or 1-based number to an option index.
func ParseOption(s string) (int, bool) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z' {
		return int(s[0] - 'A'), true
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n >= 1 {
		return n - 1, true
	}
	return 0, false
}

// QuizView renders a quiz. After a submission it marks the chosen and
// correct options of each question.
type QuizView struct {
	Quiz    *course.Quiz
	Answers []int
	Result  *quizgate.Result
}

// View renders the quiz.
func (q QuizView) View() string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(q.Quiz.Title))
	if q.Quiz.Fallback {
		b.WriteString("  " + theme.Notice.Render("(placeholder)"))
	}
	b.WriteString("\n\n")

	for i, qq := range q.Quiz.Questions {
		b.WriteString(theme.Body.Bold(true).Render(fmt.Sprintf("%d. %s", i+1, qq.Prompt)))
		b.WriteString("\n")

		chosen := -1
		if i < len(q.Answers) {
			chosen = q.Answers[i]
		}
		for j, opt := range qq.Options {
			line := fmt.Sprintf("   %s) %s", OptionLabel(j), opt)
			switch {
			case q.Result != nil && j == qq.Correct:
				line = theme.Correct.Render(line)
			case q.Result != nil && j == chosen:
				line = theme.Incorrect.Render(line)
			case j == chosen:
				line = theme.Current.Render(line)
			default:
				line = theme.Body.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		if q.Result != nil && qq.Explanation != "" && chosen != qq.Correct {
			b.WriteString(theme.Hint.Render("   " + qq.Explanation))
			b.WriteString("\n")
		}
	}

	if q.Result != nil {
		b.WriteString("\n")
		b.WriteString(ResultLine(*q.Result))
	}
	return strings.TrimRight(b.String(), "\n")
}

// ResultLine summarizes a submitted attempt.
func ResultLine(r quizgate.Result) string {
	msg := fmt.Sprintf("%d/%d correct, score %d%%", r.Correct, r.Total, r.Score)
	if r.Outcome == quizgate.OutcomePassed {
		return theme.Correct.Render("Passed: " + msg)
	}
	return theme.Incorrect.Render("Not yet: "+msg) + theme.Hint.Render("  (type 'retry' to try again)")
}
