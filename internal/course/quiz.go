package course

// Quiz is an ordered set of multiple-choice questions attached to a lecture.
type Quiz struct {
	ID            string     `json:"id" yaml:"id" validate:"required"`
	LectureID     string     `json:"lectureId" yaml:"lecture_id" validate:"required"`
	Title         string     `json:"title" yaml:"title"`
	Questions     []Question `json:"questions" yaml:"questions" validate:"min=1,dive"`
	PassThreshold int        `json:"passThreshold" yaml:"pass_threshold"`

	// Generated is set when the quiz came from the LLM rather than an author.
	Generated bool `json:"generated,omitempty" yaml:"-"`

	// Fallback is set on the built-in placeholder used when generation fails.
	Fallback bool `json:"fallback,omitempty" yaml:"-"`
}

// Question is a single multiple-choice question.
type Question struct {
	Prompt      string   `json:"prompt" yaml:"prompt" validate:"required"`
	Options     []string `json:"options" yaml:"options" validate:"min=2,dive,required"`
	Correct     int      `json:"correct" yaml:"correct" validate:"min=0"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation"`
}

// Threshold returns the pass mark applied to the quiz. It is always
// PassThreshold; the field only records it for display and storage.
func (q *Quiz) Threshold() int {
	return PassThreshold
}

// Placeholder returns the deterministic placeholder quiz for a lecture. It is
// used when no persisted quiz exists and generation fails, so the gate can
// still be exercised.
func Placeholder(lecture LectureRef) *Quiz {
	title := lecture.Title
	if title == "" {
		title = lecture.ID
	}
	return &Quiz{
		ID:            "fallback-" + lecture.ID,
		LectureID:     lecture.ID,
		Title:         "Check-in: " + title,
		PassThreshold: PassThreshold,
		Fallback:      true,
		Questions: []Question{
			{
				Prompt:      "Did you watch the lecture \"" + title + "\" to the end?",
				Options:     []string{"Yes", "No"},
				Correct:     0,
				Explanation: "Finish the lecture before moving on.",
			},
			{
				Prompt:      "What should you do if a concept in this lecture was unclear?",
				Options:     []string{"Skip ahead", "Rewatch the relevant section", "Ignore it"},
				Correct:     1,
				Explanation: "Rewatching the section is the quickest way to close the gap.",
			},
		},
	}
}
