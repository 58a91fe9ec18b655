package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/entity"
	"github.com/joseph-ayodele/contact-extractor/internal/extract"
	"github.com/joseph-ayodele/contact-extractor/internal/ocr"
	"github.com/joseph-ayodele/contact-extractor/internal/timeout"
)

// OCRStage turns a classified payload into text. Formats with a text layer are read by the
// extractor; images (and scanned PDFs) go through an OCR job.
type OCRStage struct {
	TextExtractor extract.TextExtractor
	Jobs          *ocr.Manager
	Timeouts      *timeout.Orchestrator
	Logger        *slog.Logger
}

func NewOCRStage(tx extract.TextExtractor, jobs *ocr.Manager, timeouts *timeout.Orchestrator, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{TextExtractor: tx, Jobs: jobs, Timeouts: timeouts, Logger: logger}
}

// Read extracts the payload. The returned result carries Image when OCR is still needed.
func (s *OCRStage) Read(ctx context.Context, req entity.ExtractionRequest, res *entity.Result) (extract.TextExtractionResult, error) {
	tx, err := s.TextExtractor.Extract(ctx, req.Data, req.Filename, req.Category)
	res.Warnings = append(res.Warnings, tx.Warnings...)
	if err != nil {
		return tx, err
	}
	if timeout.Expired(ctx) {
		return tx, common.NewTaxonomyError(common.CodeRequestDeadlineExceeded, "text extraction", ctx.Err())
	}
	return tx, nil
}

// Run is sync mode: read the payload and, when it needs OCR, wait for the job no longer than
// the sync ceiling. A ceiling that elapses leaves the job running and marks res timed out.
func (s *OCRStage) Run(ctx context.Context, req entity.ExtractionRequest, res *entity.Result) (string, error) {
	tx, err := s.Read(ctx, req, res)
	if err != nil {
		return "", err
	}
	if !tx.NeedsOCR() {
		return tx.Text, nil
	}

	ceiling := s.Timeouts.Ceiling(ctx)
	logger := common.LoggerFrom(ctx, s.Logger)
	start := time.Now()
	snap, err := s.Jobs.Process(ctx, ocr.Request{Image: tx.Image, Filename: req.Filename}, ceiling)
	res.JobID = snap.ID
	if err != nil {
		if snap.State == constants.JobStateTimedOut {
			res.TimedOut = true
		}
		logger.Warn("pipeline.ocr.failed",
			"job_id", snap.ID,
			"state", string(snap.State),
			"detached", snap.Detached,
			"ceiling_ms", ceiling.Milliseconds(),
			"error", err,
		)
		return snap.Text, err
	}
	logger.Info("pipeline.ocr.ok",
		"job_id", snap.ID,
		"method", tx.Method,
		"chars", len(snap.Text),
		"confidence", snap.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return snap.Text, nil
}
