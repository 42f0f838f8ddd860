package recorder

import "time"

// RunSummary describes one batch synchronization run.
type RunSummary struct {
	RunID      string
	Trigger    string // "cron" or "manual"
	StartedAt  time.Time
	FinishedAt time.Time
	Updated    int
	UpToDate   int
	Failed     int
}

// DatasetOutcome records how one dataset fared within a run.
type DatasetOutcome struct {
	RunID     string
	DatasetID string
	Status    string // "updated", "up-to-date", "failed"
	Appended  int
	Rows      int
	Error     string
}

// Recorder persists synchronization history for analysis.
type Recorder interface {
	RecordRun(run *RunSummary) error
	RecordOutcome(outcome *DatasetOutcome) error
	Close() error
}
