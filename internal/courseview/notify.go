package courseview

import "github.com/abhisek/coursepath/internal/completion"

// NoticeKind classifies a user-visible notification.
type NoticeKind string

const (
	NoticeSyncFailed      NoticeKind = "sync-failed"
	NoticeQuizFallback    NoticeKind = "quiz-fallback"
	NoticeCourseCompleted NoticeKind = "course-completed"
	NoticeCacheFailed     NoticeKind = "cache-failed"
)

// Notice is a transient message for the learner. None of them are fatal.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error

	// Completed is set on NoticeCourseCompleted.
	Completed *completion.CourseCompleted
}

// Notifier receives notices. It may be called from a timer goroutine.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}
