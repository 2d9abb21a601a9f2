package quizgate

import (
	"math"

	"github.com/abhisek/coursepath/internal/course"
)

// Unanswered marks a question with no selected option.
const Unanswered = -1

// Score returns the number of correct answers and the percentage score,
// round(100 * correct / total). Missing or out-of-range answers count as
// wrong. A quiz with no questions scores zero.
func Score(q *course.Quiz, answers []int) (correct, score int) {
	total := len(q.Questions)
	for i, qu := range q.Questions {
		if i < len(answers) && answers[i] == qu.Correct && answers[i] >= 0 && answers[i] < len(qu.Options) {
			correct++
		}
	}
	if total == 0 {
		return 0, 0
	}
	return correct, int(math.Round(100 * float64(correct) / float64(total)))
}

// Classify returns Passed when score meets course.PassThreshold. The mark is
// the same for every quiz.
func Classify(score int) Outcome {
	if score >= course.PassThreshold {
		return OutcomePassed
	}
	return OutcomeFailed
}
