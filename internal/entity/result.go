package entity

import (
	"time"

	"github.com/joseph-ayodele/contact-extractor/constants"
)

// ProviderAttempt records one call made by the provider gateway.
type ProviderAttempt struct {
	Provider string        `json:"provider"`
	Variant  string        `json:"variant"`
	Outcome  string        `json:"outcome"` // ok | timeout | error
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Attempt outcomes.
const (
	AttemptOK      = "ok"
	AttemptTimeout = "timeout"
	AttemptError   = "error"
)

// Result is what a synchronous extraction returns, including on failure:
// partial contacts and the flags explaining what went wrong travel with the error.
type Result struct {
	RequestID       string                    `json:"request_id,omitempty"`
	JobID           string                    `json:"job_id,omitempty"`
	Filename        string                    `json:"filename,omitempty"`
	ContentCategory constants.ContentCategory `json:"content_category"`
	Contacts        []Contact                 `json:"contacts"`
	Text            string                    `json:"text,omitempty"`
	Provider        string                    `json:"provider,omitempty"`
	Attempts        []ProviderAttempt         `json:"attempts,omitempty"`
	TimedOut        bool                      `json:"timed_out,omitempty"`
	LowConfidence   bool                      `json:"low_confidence,omitempty"`
	ErrorCode       string                    `json:"error_code,omitempty"`
	Warnings        []string                  `json:"warnings,omitempty"`
	Duration        time.Duration             `json:"duration"`
}

// JobStatus is the answer to a status query for an asynchronous submission.
type JobStatus struct {
	JobID       string             `json:"job_id"`
	State       constants.JobState `json:"state"`
	SubmittedAt time.Time          `json:"submitted_at"`
	StartedAt   *time.Time         `json:"started_at,omitempty"`
	FinishedAt  *time.Time         `json:"finished_at,omitempty"`
	Text        string             `json:"text,omitempty"`
	Result      *Result            `json:"result,omitempty"`
	Error       string             `json:"error,omitempty"`
	ErrorCode   string             `json:"error_code,omitempty"`
}

// Terminal reports whether the job can no longer change.
func (s JobStatus) Terminal() bool { return s.State.IsTerminal() }
