// Package tesseract binds libtesseract in-process through gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/sync/semaphore"

	"github.com/joseph-ayodele/contact-extractor/internal/ocr"
)

// Config mirrors the tesseract knobs exposed by the CLI engine.
type Config struct {
	Language    string
	TessdataDir string
	PSM         int
	// MaxInFlight caps concurrent library calls, abandoned ones included. Defaults to 1.
	MaxInFlight int
}

// Engine implements ocr.Engine with a fresh gosseract client per call.
type Engine struct {
	cfg       Config
	slots     *semaphore.Weighted
	recognize func(ocr.Input) (ocr.Result, error)
}

func New(cfg Config) *Engine {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}
	e := &Engine{cfg: cfg, slots: semaphore.NewWeighted(int64(cfg.MaxInFlight))}
	e.recognize = e.recognizeOnce
	return e
}

func (e *Engine) Name() string { return "tesseract-lib" }

// Available asks the linked library for its version.
func (e *Engine) Available(_ context.Context) error {
	if v := gosseract.Version(); v == "" {
		return fmt.Errorf("libtesseract did not report a version")
	}
	return nil
}

type outcome struct {
	res ocr.Result
	err error
}

// Recognize returns as soon as ctx ends. libtesseract cannot be interrupted mid-call, so
// the cgo call is left to finish on its own goroutine and its result is discarded. That
// goroutine keeps its slot until the library returns, so abandoned calls still count
// against MaxInFlight and later calls wait for a slot under their own ctx.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return ocr.Result{}, err
	}
	ch := make(chan outcome, 1)
	go func() {
		defer e.slots.Release(1)
		res, err := e.recognize(in)
		ch <- outcome{res, err}
	}()
	select {
	case <-ctx.Done():
		return ocr.Result{}, ctx.Err()
	case o := <-ch:
		return o.res, o.err
	}
}

func (e *Engine) recognizeOnce(in ocr.Input) (ocr.Result, error) {
	c := gosseract.NewClient()
	defer c.Close()
	return e.recognizeWithClient(c, in)
}

func (e *Engine) recognizeWithClient(c *gosseract.Client, in ocr.Input) (ocr.Result, error) {
	if e.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(e.cfg.TessdataDir); err != nil {
			return ocr.Result{}, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	langs := in.Languages
	if len(langs) == 0 {
		langs = strings.Split(e.cfg.Language, "+")
	}
	if err := c.SetLanguage(langs...); err != nil {
		return ocr.Result{}, fmt.Errorf("set languages: %w", err)
	}
	if e.cfg.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PSM)); err != nil {
			return ocr.Result{}, fmt.Errorf("set psm: %w", err)
		}
	}
	if err := c.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	return ocr.Result{Text: text, Confidence: meanWordConfidence(c)}, nil
}

func meanWordConfidence(c *gosseract.Client) float32 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return float32(sum / float64(len(boxes)) / 100.0)
}
