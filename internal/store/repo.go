package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// Progress is the remote copy of one learner's progress through a course.
type Progress struct {
	LearnerID           string
	CourseID            string
	CompletedLectureIDs []string
	CompletedQuizIDs    []string
	Percent             int
	UpdatedAt           time.Time
}

// ProgressRepo persists progress records keyed by learner and course.
// Put replaces the stored record wholesale; the last writer wins.
type ProgressRepo interface {
	// Get returns course.ErrNotFound when the learner has no record.
	Get(ctx context.Context, learnerID, courseID string) (*Progress, error)

	// Put stores p and returns the acknowledgment time.
	Put(ctx context.Context, p Progress) (time.Time, error)

	// ListByLearner returns every record for the learner, ordered by course.
	ListByLearner(ctx context.Context, learnerID string) ([]Progress, error)
}

// ProgressSnapshot is one historical copy of a pushed record.
type ProgressSnapshot struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	Progress  Progress
}

// SnapshotRepo keeps a bounded history of pushes per learner and course.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *ProgressSnapshot) error

	// History returns snapshots newest first, at most limit (0 = all).
	History(ctx context.Context, learnerID, courseID string, limit int) ([]ProgressSnapshot, error)

	// Prune deletes all but the keep most recent snapshots.
	Prune(ctx context.Context, learnerID, courseID string, keep int) error
}

// Attempt is a stored quiz submission.
type Attempt struct {
	ID        string
	Sequence  int64
	LearnerID string
	QuizID    string
	LectureID string
	CourseID  string
	Score     int
	Passed    bool
	Answers   []int
	CreatedAt time.Time
}

// AttemptRepo records quiz attempts for analytics.
type AttemptRepo interface {
	// Append stores a and returns its generated id.
	Append(ctx context.Context, a Attempt) (string, error)

	// ListByLearner returns the learner's attempts newest first.
	ListByLearner(ctx context.Context, learnerID string, opts QueryOpts) ([]Attempt, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates token usage for one purpose label.
type PurposeUsage struct {
	Purpose      string `db:"purpose"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	AvgLatencyMs int64  `db:"avg_latency_ms"`
}

// ModelUsage aggregates token usage for one model.
type ModelUsage struct {
	Model        string `db:"model"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns nil when no event has the id.
	GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	// PruneLLMEvents deletes events recorded before the cutoff and returns
	// how many were removed.
	PruneLLMEvents(ctx context.Context, before time.Time) (int64, error)
}
