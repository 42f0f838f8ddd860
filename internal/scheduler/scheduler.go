package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"CandleVault/internal/recorder"
	"CandleVault/internal/updater"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Scheduler drives periodic batch synchronization of all datasets.
type Scheduler struct {
	Cron     *cron.Cron
	Updater  *updater.Updater
	Recorder recorder.Recorder
	Workers  int
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, u *updater.Updater, rec recorder.Recorder, workers int) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Updater:  u,
		Recorder: rec,
		Workers:  workers,
		Ctx:      ctx,
	}
}

// Register schedules the batch sync task.
func (s *Scheduler) Register(syncCron string) error {
	if _, err := s.Cron.AddFunc(syncCron, func() { s.RunSync("cron") }); err != nil {
		return fmt.Errorf("register sync task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunSync executes one batch synchronization run and records the
// per-dataset outcomes plus a run summary.
func (s *Scheduler) RunSync(trigger string) []updater.Outcome {
	runID := uuid.NewString()
	started := time.Now()
	log.Printf("[INFO] sync run %s (%s) starting", runID, trigger)

	outcomes := s.Updater.UpdateAll(s.Ctx, s.Workers)

	summary := &recorder.RunSummary{
		RunID:     runID,
		Trigger:   trigger,
		StartedAt: started,
	}
	for _, o := range outcomes {
		out := &recorder.DatasetOutcome{
			RunID:     runID,
			DatasetID: o.DatasetID,
			Status:    string(o.Status),
			Appended:  o.Appended,
			Rows:      o.Rows,
		}
		switch o.Status {
		case updater.StatusUpdated:
			summary.Updated++
		case updater.StatusUpToDate:
			summary.UpToDate++
		case updater.StatusFailed:
			summary.Failed++
			if o.Err != nil {
				out.Error = o.Err.Error()
			}
		}
		if err := s.Recorder.RecordOutcome(out); err != nil {
			log.Printf("[ERROR] record outcome %s: %v", o.DatasetID, err)
		}
	}
	summary.FinishedAt = time.Now()
	if err := s.Recorder.RecordRun(summary); err != nil {
		log.Printf("[ERROR] record run %s: %v", runID, err)
	}

	log.Printf("[INFO] sync run %s done: %d updated, %d up-to-date, %d failed",
		runID, summary.Updated, summary.UpToDate, summary.Failed)
	return outcomes
}
