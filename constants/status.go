package constants

// JobState is the lifecycle state of an OCR job.
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
	JobStateTimedOut  JobState = "timed_out"
)

// IsTerminal reports whether no transition may leave s.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateSucceeded, JobStateFailed, JobStateTimedOut:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is an edge of the job graph.
func CanTransition(from, to JobState) bool {
	switch from {
	case JobStateQueued:
		return to == JobStateRunning
	case JobStateRunning:
		return to.IsTerminal()
	}
	return false
}

// Provenance records which extraction paths contributed to a contact.
type Provenance string

const (
	ProvenanceNLPOnly Provenance = "nlp_only"
	ProvenanceLLMOnly Provenance = "llm_only"
	ProvenanceFused   Provenance = "fused"
)
