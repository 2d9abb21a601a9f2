// Package courseview is the controller behind one open course: it owns the
// progress store for the learner and wires quiz gating, debounced sync,
// completion detection and the local cache around it.
package courseview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/coursepath/internal/cache"
	"github.com/abhisek/coursepath/internal/completion"
	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/progress"
	"github.com/abhisek/coursepath/internal/quizgate"
	"github.com/abhisek/coursepath/internal/quizgen"
	"github.com/abhisek/coursepath/internal/syncer"
)

var (
	// ErrLoadFailed wraps any failure to fetch the course or its progress.
	ErrLoadFailed = errors.New("course load failed")

	// ErrLocked is returned when selecting a lecture whose predecessor is
	// not complete.
	ErrLocked = errors.New("lecture locked")

	// ErrNoQuiz is returned by quiz actions on a lecture without a quiz, or
	// before the quiz has been begun.
	ErrNoQuiz = errors.New("no quiz for lecture")

	// ErrClosed is returned by handlers called after Close.
	ErrClosed = errors.New("course view closed")
)

// DefaultAttemptTimeout bounds a single attempt upload.
const DefaultAttemptTimeout = 10 * time.Second

// Remote is the authoritative store the view loads from and syncs to.
type Remote interface {
	FetchCourse(ctx context.Context, courseID string) (*course.Course, error)

	// FetchProgress returns nil, nil when the learner has no progress yet.
	FetchProgress(ctx context.Context, learnerID, courseID string) (*progress.Seed, error)
	PushProgress(ctx context.Context, learnerID, courseID string, p progress.Payload) (time.Time, error)
	RecordAttempt(ctx context.Context, learnerID string, a quizgate.Attempt) error

	quizgen.Remote
}

// Options configures Open.
type Options struct {
	LearnerID string
	CourseID  string

	// Cache is optional; without it nothing is written locally.
	Cache *cache.Cache

	SyncDelay       time.Duration
	SyncPushTimeout time.Duration
	AfterFunc       syncer.AfterFunc

	Notifier Notifier
	Logger   *zap.Logger
	Now      func() time.Time
}

// View is one learner's session on one course. Handlers are serialized.
type View struct {
	remote   Remote
	course   *course.Course
	learner  string
	store    *progress.Store
	sched    *syncer.Scheduler
	detector *completion.Detector
	quizzes  *quizgen.Source
	cache    *cache.Cache
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	selected int
	gate     *quizgate.Gate

	// closed is also read by changed, which may run without mu held when a
	// gate is submitted directly.
	closed atomic.Bool

	compMu    sync.Mutex
	completed *completion.CourseCompleted
	compSubs  []func(completion.CourseCompleted)

	attempts sync.WaitGroup
}

// Open fetches the course and the learner's progress, merges any newer
// local cache entry and returns a view positioned at the resume index.
// Any fetch failure is returned wrapped in ErrLoadFailed.
func Open(ctx context.Context, remote Remote, opts Options) (*View, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger.With(zap.String("learner", opts.LearnerID), zap.String("course", opts.CourseID))

	c, err := remote.FetchCourse(ctx, opts.CourseID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch course %s: %w", ErrLoadFailed, opts.CourseID, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	seed, err := remote.FetchProgress(ctx, opts.LearnerID, c.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch progress: %w", ErrLoadFailed, err)
	}

	v := &View{
		remote:   remote,
		course:   c,
		learner:  opts.LearnerID,
		store:    progress.NewStore(c, opts.LearnerID),
		detector: completion.New(c),
		quizzes:  quizgen.NewSource(remote, logger),
		cache:    opts.Cache,
		notifier: opts.Notifier,
		logger:   logger,
		now:      opts.Now,
	}

	rec := v.store.Load(seed)
	dirty := false
	if v.cache != nil {
		entry, err := v.cache.LoadFor(opts.LearnerID, c)
		if err != nil {
			logger.Warn("ignoring local progress cache", zap.Error(err))
		} else if entry != nil {
			cached := entry.Record()
			rec, dirty = progress.Merge(c, rec, &cached, entry.UpdatedAt)
			v.store.Replace(rec)
		}
	}

	v.sched = syncer.New(v.store.Snapshot, v.push, syncer.Options{
		Delay:       opts.SyncDelay,
		PushTimeout: opts.SyncPushTimeout,
		AfterFunc:   opts.AfterFunc,
		Logger:      logger,
		OnSuccess:   v.synced,
		OnError:     v.syncFailed,
	})
	v.detector.Subscribe(v.courseCompleted)
	v.store.Subscribe(v.changed)

	v.selected = progress.ResumeIndex(c, rec)
	if dirty {
		logger.Info("local progress ahead of remote, scheduling sync",
			zap.Int("lectures", rec.CompletedLectureIDs.Len()))
		v.writeCache(rec)
		v.sched.Schedule()
	}
	v.detector.Observe(rec)

	return v, nil
}

// Course returns the loaded course.
func (v *View) Course() *course.Course { return v.course }

// LearnerID returns the learner the view was opened for.
func (v *View) LearnerID() string { return v.learner }

// Snapshot returns the current progress record.
func (v *View) Snapshot() progress.Record { return v.store.Snapshot() }

// Percent returns the completion percentage.
func (v *View) Percent() int { return v.store.Snapshot().Percent }

// UnlockState reports whether the lecture at index may be opened.
func (v *View) UnlockState(index int) bool {
	return progress.IsUnlocked(v.course, v.store.Snapshot(), index)
}

// UnlockStates returns the unlock state of every lecture.
func (v *View) UnlockStates() []bool {
	return progress.UnlockStates(v.course, v.store.Snapshot())
}

// ResumeIndex returns where the learner should continue.
func (v *View) ResumeIndex() int {
	return progress.ResumeIndex(v.course, v.store.Snapshot())
}

// Selected returns the index and lecture currently open.
func (v *View) Selected() (int, course.LectureRef) {
	v.mu.Lock()
	defer v.mu.Unlock()
	l, _ := v.course.Lecture(v.selected)
	return v.selected, l
}

// Quiz returns the gate for the open lecture, or nil before BeginQuiz.
func (v *View) Quiz() *quizgate.Gate {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gate
}

// Select opens the lecture at index if it is unlocked.
func (v *View) Select(index int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() {
		return ErrClosed
	}
	return v.selectLocked(index)
}

// Next opens the lecture after the current one.
func (v *View) Next() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() {
		return ErrClosed
	}
	return v.selectLocked(v.selected + 1)
}

func (v *View) selectLocked(index int) error {
	if !progress.IsUnlocked(v.course, v.store.Snapshot(), index) {
		return fmt.Errorf("lecture %d: %w", index, ErrLocked)
	}
	if index != v.selected {
		v.gate = nil
	}
	v.selected = index
	return nil
}

// OnVideoEnded handles the end of the open lecture's video. A lecture
// without a quiz is completed; otherwise its quiz is begun and returned.
// Nothing happens for a lecture that is already complete.
func (v *View) OnVideoEnded(ctx context.Context) (*quizgate.Gate, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() {
		return nil, ErrClosed
	}

	l, ok := v.course.Lecture(v.selected)
	if !ok || v.store.IsLectureComplete(l.ID) {
		return nil, nil
	}
	if !l.HasQuiz() {
		v.store.MarkLectureComplete(l.ID)
		return nil, nil
	}
	return v.beginQuizLocked(ctx, l)
}

// OnMarkLectureComplete completes the open lecture directly. The lecture's
// quiz, if any, is left as it is. After Close the current record is
// returned unchanged.
func (v *View) OnMarkLectureComplete() progress.Record {
	v.mu.Lock()
	defer v.mu.Unlock()

	l, ok := v.course.Lecture(v.selected)
	if !ok || v.closed.Load() {
		return v.store.Snapshot()
	}
	return v.store.MarkLectureComplete(l.ID)
}

// BeginQuiz acquires the open lecture's quiz and starts an attempt. An
// unfinished gate for the same lecture is returned as is.
func (v *View) BeginQuiz(ctx context.Context) (*quizgate.Gate, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() {
		return nil, ErrClosed
	}

	l, ok := v.course.Lecture(v.selected)
	if !ok || !l.HasQuiz() {
		return nil, fmt.Errorf("lecture %q: %w", l.ID, ErrNoQuiz)
	}
	return v.beginQuizLocked(ctx, l)
}

func (v *View) beginQuizLocked(ctx context.Context, l course.LectureRef) (*quizgate.Gate, error) {
	if v.gate != nil && v.gate.LectureID() == l.ID && v.gate.State() != quizgate.StatePassed {
		return v.gate, nil
	}

	got := v.quizzes.Acquire(ctx, v.course.ID, l)
	if got.Fallback {
		v.notifier.Notify(Notice{
			Kind:    NoticeQuizFallback,
			Message: "Couldn't load this lecture's quiz, using a short check-in instead.",
			Err:     got.Err,
		})
	}

	g := quizgate.New(got.Quiz, l.ID, v.store)
	if err := g.Start(); err != nil {
		return nil, err
	}
	v.gate = g
	return g, nil
}

// OnQuizSubmitted scores answers for the open quiz. The attempt is uploaded
// in the background; its failure never affects the result.
func (v *View) OnQuizSubmitted(ctx context.Context, answers []int) (quizgate.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed.Load() {
		return quizgate.Result{}, ErrClosed
	}
	if v.gate == nil {
		return quizgate.Result{}, ErrNoQuiz
	}
	res, err := v.gate.Submit(answers)
	if err != nil {
		return res, err
	}

	attempt := v.gate.Attempt(v.course.ID, v.now())
	v.recordAttempt(context.WithoutCancel(ctx), attempt)
	return res, nil
}

// OnQuizRetry clears the failed attempt's answers and starts another.
func (v *View) OnQuizRetry() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed.Load() {
		return ErrClosed
	}
	if v.gate == nil {
		return ErrNoQuiz
	}
	return v.gate.Retry()
}

// OnCourseCompleted registers fn for the completion signal. If the course
// was already complete when the view opened, fn is called immediately.
func (v *View) OnCourseCompleted(fn func(completion.CourseCompleted)) {
	v.compMu.Lock()
	v.compSubs = append(v.compSubs, fn)
	done := v.completed
	v.compMu.Unlock()

	if done != nil {
		fn(*done)
	}
}

// Close cancels any pending sync without flushing and waits for in-flight
// pushes and attempt uploads. The local cache already holds the latest
// state, so the next Open picks up anything that did not reach the remote.
// Handlers called afterwards return ErrClosed and never schedule a push.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed.Swap(true) {
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	v.sched.Cancel()
	v.sched.Wait()
	v.attempts.Wait()
}

// SyncPending reports whether a debounced push is waiting to fire.
func (v *View) SyncPending() bool {
	return v.sched.Pending()
}

// changed runs synchronously after every store mutation. A closed view
// neither writes the cache nor schedules a push.
func (v *View) changed(r progress.Record) {
	if v.closed.Load() {
		return
	}
	v.writeCache(r)
	v.sched.Schedule()
	v.detector.Observe(r)
}

func (v *View) push(ctx context.Context, r progress.Record) (time.Time, error) {
	return v.remote.PushProgress(ctx, r.LearnerID, r.CourseID, r.Payload())
}

func (v *View) synced(_ progress.Record, at time.Time) {
	v.store.MarkSynced(at)
	v.writeCache(v.store.Snapshot())
}

func (v *View) syncFailed(err error) {
	v.notifier.Notify(Notice{
		Kind:    NoticeSyncFailed,
		Message: "Progress couldn't be saved right now. It will be sent with your next change.",
		Err:     err,
	})
}

func (v *View) courseCompleted(ev completion.CourseCompleted) {
	v.compMu.Lock()
	v.completed = &ev
	subs := make([]func(completion.CourseCompleted), len(v.compSubs))
	copy(subs, v.compSubs)
	v.compMu.Unlock()

	v.logger.Info("course completed")
	v.notifier.Notify(Notice{
		Kind:      NoticeCourseCompleted,
		Message:   fmt.Sprintf("You finished %s!", v.course.Title),
		Completed: &ev,
	})
	for _, fn := range subs {
		fn(ev)
	}
}

func (v *View) writeCache(r progress.Record) {
	if v.cache == nil {
		return
	}
	if err := v.cache.Save(r, v.course.Version); err != nil {
		v.logger.Warn("progress cache write failed", zap.Error(err))
		v.notifier.Notify(Notice{Kind: NoticeCacheFailed, Message: "Couldn't save progress locally.", Err: err})
	}
}

func (v *View) recordAttempt(ctx context.Context, a quizgate.Attempt) {
	v.attempts.Add(1)
	go func() {
		defer v.attempts.Done()
		ctx, cancel := context.WithTimeout(ctx, DefaultAttemptTimeout)
		defer cancel()
		if err := v.remote.RecordAttempt(ctx, v.learner, a); err != nil {
			v.logger.Warn("quiz attempt upload failed",
				zap.String("quiz", a.QuizID),
				zap.Int("score", a.Score),
				zap.Error(err))
		}
	}()
}
