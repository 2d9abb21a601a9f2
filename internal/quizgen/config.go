package quizgen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every generated quiz; the first failure
	// rejects it.
	Validators []Validator

	// Questions is the number of questions to ask for.
	Questions int

	// Options is the number of answer options per question.
	Options int

	MaxTokens   int
	Temperature float64

	// MaxPriorQuestions caps how many prompts from a replaced quiz are
	// listed in the prompt to avoid repeats.
	MaxPriorQuestions int
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&DuplicateValidator{},
		},
		Questions:         5,
		Options:           4,
		MaxTokens:         2048,
		Temperature:       0.4,
		MaxPriorQuestions: 10,
	}
}
