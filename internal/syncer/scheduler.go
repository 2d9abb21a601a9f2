package syncer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/coursepath/internal/progress"
)

// DefaultDelay is the quiet period after the last mutation before a push.
const DefaultDelay = 1 * time.Second

// DefaultPushTimeout bounds a single push once it has been dispatched.
const DefaultPushTimeout = 10 * time.Second

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// PushFunc sends the full snapshot to the remote store and returns the
// remote acknowledgment time.
type PushFunc func(ctx context.Context, r progress.Record) (time.Time, error)

// Options configures a Scheduler. Zero values take defaults.
type Options struct {
	Delay       time.Duration
	PushTimeout time.Duration
	AfterFunc   AfterFunc
	Logger      *zap.Logger

	// OnSuccess is called after the remote acknowledges a push.
	OnSuccess func(r progress.Record, syncedAt time.Time)

	// OnError is called when a push fails. No retry is scheduled; the next
	// Schedule carries the newer cumulative state.
	OnError func(err error)
}

// Scheduler debounces progress mutations into full-snapshot pushes. It owns
// a single debounce token: every Schedule replaces the pending timer, and
// Cancel drops it without flushing.
type Scheduler struct {
	snapshot func() progress.Record
	push     PushFunc
	opts     Options

	mu    sync.Mutex
	timer Timer
	gen   uint64

	inflight sync.WaitGroup
}

// New creates a scheduler reading the current state from snapshot at fire
// time and sending it with push.
func New(snapshot func() progress.Record, push PushFunc, opts Options) *Scheduler {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.PushTimeout <= 0 {
		opts.PushTimeout = DefaultPushTimeout
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Scheduler{snapshot: snapshot, push: push, opts: opts}
}

// Schedule (re)starts the debounce timer.
func (s *Scheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.opts.AfterFunc(s.opts.Delay, func() { s.fire(gen) })
}

// Cancel stops any pending timer. Pending changes are not pushed; a push
// already in flight is left to finish.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// Pending reports whether a push is waiting on the debounce timer.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Wait blocks until every dispatched push has returned.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		// Superseded by a later Schedule or Cancel after this timer fired.
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	snap := s.snapshot()
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PushTimeout)
	defer cancel()

	log := s.opts.Logger.With(
		zap.String("learner", snap.LearnerID),
		zap.String("course", snap.CourseID),
		zap.Int("lectures", snap.CompletedLectureIDs.Len()),
		zap.Int("percent", snap.Percent),
	)

	syncedAt, err := s.push(ctx, snap)
	if err != nil {
		log.Warn("progress push failed", zap.Error(err))
		if s.opts.OnError != nil {
			s.opts.OnError(err)
		}
		return
	}

	log.Debug("progress pushed", zap.Time("synced_at", syncedAt))
	if s.opts.OnSuccess != nil {
		s.opts.OnSuccess(snap, syncedAt)
	}
}
