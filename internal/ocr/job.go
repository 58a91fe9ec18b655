package ocr

import (
	"context"
	"time"

	"github.com/joseph-ayodele/contact-extractor/constants"
)

// FollowUp runs after recognition inside the same job. Its payload is exposed by Status
// once the job is terminal.
type FollowUp func(ctx context.Context, text string) (any, error)

// Request describes one job. When Image is empty, Text is taken as already recognized
// and only the follow-up runs.
type Request struct {
	Image    []byte
	Filename string
	Text     string
	Then     FollowUp
}

// Snapshot is an immutable view of a job.
type Snapshot struct {
	ID          string
	Filename    string
	State       constants.JobState
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
	Text        string
	Confidence  float32
	Prepared    Prepared
	Payload     any
	Err         error

	// Detached is set on a sync-mode answer whose ceiling elapsed while the job kept
	// running; State reads timed_out for the caller only.
	Detached bool
}

// Terminal reports whether the job can no longer change.
func (s Snapshot) Terminal() bool { return s.State.IsTerminal() }

type job struct {
	id        string
	req       Request
	state     constants.JobState
	submitted time.Time
	started   time.Time
	finished  time.Time
	text      string
	conf      float32
	prepared  Prepared
	payload   any
	err       error
	done      chan struct{}
}

func (j *job) snapshot() Snapshot {
	p := j.prepared
	p.Data = nil
	return Snapshot{
		ID:          j.id,
		Filename:    j.req.Filename,
		State:       j.state,
		SubmittedAt: j.submitted,
		StartedAt:   j.started,
		FinishedAt:  j.finished,
		Text:        j.text,
		Confidence:  j.conf,
		Prepared:    p,
		Payload:     j.payload,
		Err:         j.err,
	}
}
