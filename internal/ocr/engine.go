// Package ocr turns image buffers into text. Recognition runs inside jobs owned by a
// Manager, which enforces the per-job timeout and the queued → running → terminal graph.
package ocr

import "context"

// Input is a single image submitted for recognition.
type Input struct {
	// ID echoes the job identifier for logging.
	ID string
	// Image is an encoded image (PNG after preprocessing).
	Image []byte
	// Languages are tesseract language codes, e.g. "eng".
	Languages []string
}

// Result is the recognized text of one image.
type Result struct {
	Text string
	// Confidence in [0,1]; zero means the engine did not report one.
	Confidence float32
}

// Engine binds an OCR backend. Recognize must return promptly once ctx is done so an
// expired job stops consuming the worker.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// Prober is implemented by engines that can report whether they are usable.
type Prober interface {
	Available(ctx context.Context) error
}

// EngineFunc adapts a plain function to Engine.
type EngineFunc func(ctx context.Context, in Input) (Result, error)

func (f EngineFunc) Name() string { return "func" }

func (f EngineFunc) Recognize(ctx context.Context, in Input) (Result, error) { return f(ctx, in) }
