// Package sync assembles the tracker's stored data into JSONL backups and
// ships them to configured destinations on a schedule.
package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/groblegark/cadence/internal/store"
)

// Destination ships an assembled backup to a target (S3, git, etc.).
type Destination interface {
	Write(ctx context.Context, b *Backup) error
}

// Scheduler runs periodic backups to one or more destinations.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic backups. It runs an initial export immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current export (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	// Run once immediately at startup.
	s.syncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce(ctx)
		}
	}
}

func (s *Scheduler) syncOnce(ctx context.Context) {
	backup, err := BuildBackup(ctx, s.store)
	if err != nil {
		s.logger.Error("backup export failed", "err", err)
		return
	}

	for i, dest := range s.destinations {
		if err := dest.Write(ctx, backup); err != nil {
			s.logger.Error("backup destination write failed", "destination", i, "err", err)
		}
	}

	s.logger.Info("backup completed",
		"destinations", len(s.destinations),
		"configs", backup.ConfigCount,
		"history_rows", backup.HistoryCount,
		"daily_rows", backup.DailyCount,
		"bytes", len(backup.Data))
}
