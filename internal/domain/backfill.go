package domain

import "time"

type BackfillJobStatus string

const (
	BackfillJobQueued     BackfillJobStatus = "queued"
	BackfillJobProcessing BackfillJobStatus = "processing"
	BackfillJobDone       BackfillJobStatus = "done"
	BackfillJobFailed     BackfillJobStatus = "failed"
)

// BackfillJob is a queued historical-load request processed by the worker.
type BackfillJob struct {
	ID          string
	DateFrom    time.Time
	DateTo      time.Time
	Status      BackfillJobStatus
	RatesLoaded int
	Errors      []string
	Error       *string
	RequestedAt time.Time
	CompletedAt *time.Time
}

// BackfillResult is the outcome of one backfill run. Success is false only
// for structural failures (bad range, no provider, no currencies); per-pair
// and per-date failures are itemized in Errors with Success still true.
type BackfillResult struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	RatesLoaded int      `json:"rates_loaded"`
	DateFrom    string   `json:"date_from,omitempty"`
	DateTo      string   `json:"date_to,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}
