package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ─────────────────────────────────────────────────────────────
// History Retention: scheduled pruning of stale undo journals
// ─────────────────────────────────────────────────────────────

const retentionJob = "history-retention"

// HistoryPruner deletes journal entries older than a cutoff.
type HistoryPruner interface {
	PruneOlderThan(cutoff time.Time) (int64, error)
}

// RetentionService runs the history sweep on a cron schedule.
type RetentionService struct {
	pruner  HistoryPruner
	maxAge  time.Duration
	emitter EventEmitter
	now     func() time.Time

	running   runningJobsGuard
	cronSched *cron.Cron
}

func NewRetentionService(pruner HistoryPruner, maxAge time.Duration, emitter EventEmitter) *RetentionService {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &RetentionService{pruner: pruner, maxAge: maxAge, emitter: emitter, now: time.Now}
}

// Start schedules the sweep. An empty spec or a non-positive max age
// disables it.
func (s *RetentionService) Start(ctx context.Context, spec string) error {
	s.Stop()
	if spec == "" || s.maxAge <= 0 {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			log.Printf("[RETENTION] sweep failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule retention %q: %w", spec, err)
	}
	c.Start()
	s.cronSched = c
	log.Printf("[RETENTION] scheduled %q, max age %s", spec, s.maxAge)
	return nil
}

// RunOnce prunes entries older than the max age. A sweep already in progress
// makes it return zero without running.
func (s *RetentionService) RunOnce(ctx context.Context) (int64, error) {
	if !s.running.TryLock(retentionJob) {
		return 0, nil
	}
	defer s.running.Unlock(retentionJob)

	n, err := s.pruner.PruneOlderThan(s.now().Add(-s.maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[RETENTION] pruned %d history entries", n)
		s.emitter.Emit(ctx, EventHistoryPruned, n)
	}
	return n, nil
}

// Stop cancels the schedule and waits for a running sweep.
func (s *RetentionService) Stop() {
	if s.cronSched != nil {
		<-s.cronSched.Stop().Done()
		s.cronSched = nil
	}
}
