package reflection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/memoryd/internal/ledger"
	"github.com/rcliao/memoryd/internal/model"
)

// Processor consolidates a message batch. Satisfied by *Coordinator.
type Processor interface {
	Process(ctx context.Context, msgs []model.Message) (map[model.Category]int, error)
}

// SchedulerOptions configures the trigger policy.
type SchedulerOptions struct {
	// TimeInterval is the elapsed-time trigger since the last completed run.
	TimeInterval time.Duration
	// MessageThreshold is the unprocessed-count trigger.
	MessageThreshold int
	// PollTick is the fixed check cadence, independent of the triggers.
	PollTick time.Duration
	// BatchLimit caps how many messages one run consumes.
	BatchLimit int
	// OracleTimeout bounds the extraction call within a run.
	OracleTimeout time.Duration
}

// DefaultSchedulerOptions returns the standard trigger policy.
func DefaultSchedulerOptions() SchedulerOptions {
	return SchedulerOptions{
		TimeInterval:     5 * time.Minute,
		MessageThreshold: 5,
		PollTick:         10 * time.Second,
		BatchLimit:       20,
		OracleTimeout:    60 * time.Second,
	}
}

// Scheduler runs the background poll loop that triggers consolidation when
// enough time has passed or enough messages have accumulated. A single
// mutex serializes scheduled and forced runs: forced runs block until the
// lock is free, scheduled ticks skip and retry next tick.
type Scheduler struct {
	opts   SchedulerOptions
	ledger ledger.Ledger
	proc   Processor
	log    *zap.Logger

	runMu sync.Mutex // held for the whole Reflecting critical section

	mu      sync.Mutex // guards the fields below
	lastRun time.Time
	running bool
	stop    chan struct{}
	done    chan struct{}

	now func() time.Time
}

// NewScheduler wires a scheduler. Zero option fields take their defaults.
func NewScheduler(opts SchedulerOptions, l ledger.Ledger, proc Processor, log *zap.Logger) *Scheduler {
	def := DefaultSchedulerOptions()
	if opts.TimeInterval <= 0 {
		opts.TimeInterval = def.TimeInterval
	}
	if opts.MessageThreshold <= 0 {
		opts.MessageThreshold = def.MessageThreshold
	}
	if opts.PollTick <= 0 {
		opts.PollTick = def.PollTick
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = def.BatchLimit
	}
	if opts.OracleTimeout <= 0 {
		opts.OracleTimeout = def.OracleTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		opts:   opts,
		ledger: l,
		proc:   proc,
		log:    log,
		now:    time.Now,
	}
}

// Start launches the poll loop. The loop exits when ctx is cancelled or
// Stop is called. Starting an already-running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.lastRun = s.now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	s.log.Info("scheduler started",
		zap.Duration("time_interval", s.opts.TimeInterval),
		zap.Int("message_threshold", s.opts.MessageThreshold),
		zap.Duration("poll_tick", s.opts.PollTick))

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.opts.PollTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				if err := s.tick(ctx); err != nil {
					s.log.Error("scheduler tick failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop signals the poll loop and waits for it to exit. Any in-flight run
// finishes first; its oracle call is already bounded by OracleTimeout.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	// Wait for a run still holding the lock.
	s.runMu.Lock()
	s.runMu.Unlock()
	s.log.Info("scheduler stopped")
}

// tick evaluates the trigger and, if it fires, attempts a run. A tick that
// finds the run lock held skips instead of queueing.
func (s *Scheduler) tick(ctx context.Context) error {
	count, err := s.ledger.CountUnprocessed(ctx)
	if err != nil {
		return fmt.Errorf("count unprocessed: %w", err)
	}

	s.mu.Lock()
	elapsed := s.now().Sub(s.lastRun)
	s.mu.Unlock()

	if !shouldFire(count, elapsed, s.opts.TimeInterval, s.opts.MessageThreshold) {
		return nil
	}

	if !s.runMu.TryLock() {
		s.log.Debug("reflection already in progress, skipping tick")
		return nil
	}
	defer s.runMu.Unlock()

	reason := "messages"
	if elapsed >= s.opts.TimeInterval {
		reason = "time"
	}
	s.log.Info("triggering reflection",
		zap.String("reason", reason), zap.Int("unprocessed", count))

	_, err = s.run(ctx)
	return err
}

// shouldFire is the trigger predicate: elapsed time or message backlog,
// and at least one unprocessed message.
func shouldFire(unprocessed int, elapsed, timeInterval time.Duration, messageThreshold int) bool {
	if unprocessed <= 0 {
		return false
	}
	return elapsed >= timeInterval || unprocessed >= messageThreshold
}

// ForceRun triggers a consolidation immediately, bypassing the trigger
// thresholds. It blocks until the run lock is free and does not disturb
// the poll cadence.
func (s *Scheduler) ForceRun(ctx context.Context) (map[model.Category]int, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.run(ctx)
}

// run executes one consolidation under the run lock: fetch batch, process,
// then atomically mark processed and record the run. Processing or ledger
// failure aborts without marking anything, so the batch is retried on the
// next trigger. The completion time becomes the new elapsed-time baseline
// either way.
func (s *Scheduler) run(ctx context.Context) (results map[model.Category]int, err error) {
	defer func() {
		s.mu.Lock()
		s.lastRun = s.now()
		s.mu.Unlock()
	}()

	msgs, err := s.ledger.OldestUnprocessed(ctx, s.opts.BatchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}
	if len(msgs) == 0 {
		return map[model.Category]int{}, nil
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.OracleTimeout)
	results, err = s.proc.Process(pctx, msgs)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("process batch: %w", err)
	}

	ids := make([]int64, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	var cats []string
	for _, cat := range model.Categories() {
		if results[cat] > 0 {
			cats = append(cats, string(cat))
		}
	}

	run, err := s.ledger.CompleteRun(ctx, ids, cats)
	if err != nil {
		return nil, fmt.Errorf("complete run: %w", err)
	}

	s.log.Info("reflection complete",
		zap.String("run_id", run.ID),
		zap.Int("messages", run.MessagesProcessed),
		zap.Int64("last_id", run.LastProcessedID),
		zap.Strings("categories", cats))
	return results, nil
}
