package quizgen

import "github.com/abhisek/coursepath/internal/llm"

// QuizSchema defines the JSON schema for LLM quiz generation responses.
var QuizSchema = &llm.Schema{
	Name:        "lecture-quiz",
	Description: "A short multiple-choice quiz checking understanding of one lecture",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "A short quiz title naming the lecture topic",
			},
			"questions": map[string]any{
				"type":        "array",
				"minItems":    1,
				"maxItems":    10,
				"description": "The quiz questions in the order they are asked",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"prompt": map[string]any{
							"type":        "string",
							"description": "The question shown to the learner",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Exactly 4 answer options",
						},
						"correct": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"description": "Zero-based index of the correct option",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "One or two sentences explaining the correct answer",
						},
					},
					"required":             []any{"prompt", "options", "correct", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"title", "questions"},
		"additionalProperties": false,
	},
}

// quizOutput is the raw LLM response before validation.
type quizOutput struct {
	Title     string           `json:"title"`
	Questions []questionOutput `json:"questions"`
}

type questionOutput struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation"`
}
