package entity

// Health reports whether the pipeline can serve image and LLM-backed extractions.
type Health struct {
	OCR       OCRHealth        `json:"ocr"`
	LLM       bool             `json:"llm"`
	Providers []ProviderHealth `json:"providers"`
	Queue     QueueStats       `json:"queue"`
}

// Ready is true when OCR works and at least one provider is usable.
func (h Health) Ready() bool { return h.OCR.Available && h.LLM }

type OCRHealth struct {
	Engine    string `json:"engine"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

type ProviderHealth struct {
	Name     string `json:"name"`
	Variant  string `json:"variant"`
	Model    string `json:"model,omitempty"`
	Priority int    `json:"priority"`
	Attempts int64  `json:"attempts"`
	Failures int64  `json:"failures"`
}

// QueueStats is a point-in-time view of the OCR job queue.
type QueueStats struct {
	Capacity  int   `json:"capacity"`
	Queued    int   `json:"queued"`
	Running   int   `json:"running"`
	Retained  int   `json:"retained"`
	Submitted int64 `json:"submitted"`
	Rejected  int64 `json:"rejected"`
}
