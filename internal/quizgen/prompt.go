package quizgen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write short comprehension quizzes for an online video course.

Rules:
- Every question must be answerable from the lecture described, without outside knowledge.
- Each question has exactly the requested number of options, exactly one of them correct.
- Distractors should be plausible misunderstandings, not jokes or obviously wrong values.
- Vary the position of the correct option across questions.
- Keep prompts under 300 characters and explanations to one or two sentences.
- Use plain text. No markdown, no numbering inside prompts or options.
- Do not repeat any question from the "previous quiz" list.`

// buildUserMessage constructs the user message for one lecture.
func buildUserMessage(input Input, cfg Config) string {
	var b strings.Builder

	if input.Course != nil {
		fmt.Fprintf(&b, "Course: %s\n", input.Course.Title)
		fmt.Fprintf(&b, "Lecture %d of %d: %s\n", input.Lecture.Index+1, len(input.Course.Lectures), lectureTitle(input))
	} else {
		fmt.Fprintf(&b, "Lecture: %s\n", lectureTitle(input))
	}

	summary := strings.TrimSpace(input.Lecture.Summary)
	if summary == "" {
		summary = "No summary available. Ask about the core ideas the title implies."
	}
	fmt.Fprintf(&b, "Summary: %s\n", summary)
	fmt.Fprintf(&b, "Questions: %d\n", cfg.Questions)
	fmt.Fprintf(&b, "Options per question: %d\n", cfg.Options)

	b.WriteString("\nPrevious quiz:\n")
	b.WriteString(buildPrior(input.PriorPrompts, cfg.MaxPriorQuestions))

	return b.String()
}

func lectureTitle(input Input) string {
	if input.Lecture.Title != "" {
		return input.Lecture.Title
	}
	return input.Lecture.ID
}

// buildPrior lists prompts of a replaced quiz, most recent last.
func buildPrior(prompts []string, max int) string {
	if len(prompts) == 0 {
		return "None"
	}
	if max > 0 && len(prompts) > max {
		prompts = prompts[len(prompts)-max:]
	}

	var b strings.Builder
	for i, p := range prompts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	return strings.TrimRight(b.String(), "\n")
}
