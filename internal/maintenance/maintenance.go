// Package maintenance runs periodic housekeeping jobs for the server.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// DefaultInterval is how often jobs run when Options.Interval is zero.
const DefaultInterval = time.Hour

// EventPruner deletes LLM request events older than a cutoff.
type EventPruner interface {
	PruneLLMEvents(ctx context.Context, before time.Time) (int64, error)
}

// Options configures the scheduler.
type Options struct {
	Interval time.Duration

	// LLMEventRetention is how long LLM request events are kept. Zero keeps
	// them forever.
	LLMEventRetention time.Duration

	Logger *zap.Logger
	Now    func() time.Time
}

// Scheduler owns the gocron scheduler running housekeeping jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	events    EventPruner
	opts      Options
}

// New creates a scheduler. Nothing runs until Start.
func New(events EventPruner, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		events:    events,
		opts:      opts,
	}
}

// Start registers the enabled jobs and runs them in the background. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if s.opts.LLMEventRetention > 0 {
		if _, err := s.scheduler.Every(s.opts.Interval).Do(s.pruneJob); err != nil {
			return fmt.Errorf("schedule LLM event pruning: %w", err)
		}
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop halts the scheduler. Jobs already running finish on their own.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// PruneEvents deletes LLM events older than the retention window.
func (s *Scheduler) PruneEvents(ctx context.Context) (int64, error) {
	if s.opts.LLMEventRetention <= 0 {
		return 0, nil
	}
	return s.events.PruneLLMEvents(ctx, s.opts.Now().Add(-s.opts.LLMEventRetention))
}

func (s *Scheduler) pruneJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.PruneEvents(ctx)
	if err != nil {
		s.opts.Logger.Warn("LLM event pruning failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.opts.Logger.Info("pruned LLM events", zap.Int64("deleted", n))
	}
}
