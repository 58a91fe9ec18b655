// Package pipeline runs a request through classify → text/OCR → entities → providers → fusion
// and exposes the sync, async, status and health calls.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/classify"
	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/entity"
	"github.com/joseph-ayodele/contact-extractor/internal/ocr"
	"github.com/joseph-ayodele/contact-extractor/internal/timeout"
)

// Processor coordinates the OCR stage then the parse stage.
type Processor struct {
	Logger      *slog.Logger
	OCR         *OCRStage
	Parse       *ParseStage
	Timeouts    *timeout.Orchestrator
	MaxFileSize int64
}

func NewProcessor(logger *slog.Logger, timeouts *timeout.Orchestrator, ocrStage *OCRStage, parse *ParseStage, maxFileSize int64) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if maxFileSize <= 0 {
		maxFileSize = constants.DefaultMaxFileSize
	}
	return &Processor{Logger: logger, OCR: ocrStage, Parse: parse, Timeouts: timeouts, MaxFileSize: maxFileSize}
}

// Extract is the synchronous call. It always returns a Result; on failure the Result carries
// the error code, the timeout flag and any contacts recovered before the failure, and the error
// is a taxonomy AppError.
func (p *Processor) Extract(ctx context.Context, data []byte, filename, mimeType string) (entity.Result, error) {
	ctx = withRequestID(ctx)
	ctx, cancel, deadline := p.Timeouts.Begin(ctx)
	defer cancel()

	logger := common.LoggerFrom(ctx, p.Logger)
	start := time.Now()
	res := entity.Result{RequestID: common.RequestIDFromContext(ctx), Filename: filename, Contacts: []entity.Contact{}}

	req, err := p.admit(data, filename, mimeType, deadline)
	res.ContentCategory = req.Category
	if err != nil {
		return p.finish(logger, res, start, err)
	}
	logger.Info("pipeline.extract.start",
		"filename", filename,
		"category", string(req.Category),
		"bytes", req.Size(),
		"deadline", deadline.Format(time.RFC3339Nano),
	)

	text, err := p.OCR.Run(ctx, req, &res)
	if err != nil {
		return p.finish(logger, res, start, err)
	}
	res.Text = text

	p.Parse.Run(ctx, text, req.Category, filename, &res)
	if timeout.Expired(ctx) {
		res.TimedOut = true
		return p.finish(logger, res, start,
			common.NewTaxonomyError(common.CodeRequestDeadlineExceeded, "request deadline reached during parse", ctx.Err()))
	}
	return p.finish(logger, res, start, nil)
}

// Submit is the asynchronous call. The payload is read now; recognition (for images) and the
// parse stage run inside an OCR job whose identifier is returned immediately.
func (p *Processor) Submit(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	ctx = withRequestID(ctx)
	logger := common.LoggerFrom(ctx, p.Logger)

	req, err := p.admit(data, filename, mimeType, time.Time{})
	if err != nil {
		logger.Warn("pipeline.submit.rejected", "filename", filename, "error", err)
		return "", err
	}

	readCtx, cancel := p.Timeouts.Stage(ctx, p.Timeouts.Budget().Request)
	defer cancel()
	base := entity.Result{RequestID: common.RequestIDFromContext(ctx), Filename: filename, ContentCategory: req.Category}
	tx, err := p.OCR.Read(readCtx, req, &base)
	if err != nil {
		err = taxonomy(err)
		logger.Warn("pipeline.submit.read_failed", "filename", filename, "error", err)
		return "", err
	}

	jobReq := ocr.Request{Filename: filename, Then: p.followUp(base)}
	if tx.NeedsOCR() {
		jobReq.Image = tx.Image
	} else {
		jobReq.Text = tx.Text
	}
	id, err := p.OCR.Jobs.Submit(ctx, jobReq)
	if err != nil {
		logger.Warn("pipeline.submit.failed", "filename", filename, "error", err)
		return "", taxonomy(err)
	}
	logger.Info("pipeline.submit.ok", "job_id", id, "filename", filename, "category", string(req.Category), "ocr", tx.NeedsOCR())
	return id, nil
}

// followUp runs the parse stage inside the job once its text is known.
func (p *Processor) followUp(base entity.Result) ocr.FollowUp {
	return func(ctx context.Context, text string) (any, error) {
		start := time.Now()
		res := base
		res.JobID = common.JobIDFromContext(ctx)
		res.Text = text
		res.Warnings = append([]string(nil), base.Warnings...)
		p.Parse.Run(ctx, text, res.ContentCategory, res.Filename, &res)
		res.Duration = time.Since(start)
		if timeout.Expired(ctx) {
			res.TimedOut = true
			res.ErrorCode = common.CodeRequestDeadlineExceeded
			return &res, common.NewTaxonomyError(common.CodeRequestDeadlineExceeded, "parse stage", ctx.Err())
		}
		return &res, nil
	}
}

// Status reports a submitted job. Once the job is terminal repeated calls return the same answer.
func (p *Processor) Status(_ context.Context, id string) (entity.JobStatus, error) {
	snap, err := p.OCR.Jobs.Status(id)
	if err != nil {
		return entity.JobStatus{JobID: id}, err
	}
	return statusOf(snap), nil
}

func statusOf(s ocr.Snapshot) entity.JobStatus {
	st := entity.JobStatus{
		JobID:       s.ID,
		State:       s.State,
		SubmittedAt: s.SubmittedAt,
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		st.StartedAt = &t
	}
	if !s.Terminal() {
		return st
	}
	if !s.FinishedAt.IsZero() {
		t := s.FinishedAt
		st.FinishedAt = &t
	}
	st.Text = s.Text
	if r, ok := s.Payload.(*entity.Result); ok && r != nil {
		cp := *r
		st.Result = &cp
	}
	if s.Err != nil {
		st.Error = s.Err.Error()
		st.ErrorCode = common.CodeOf(s.Err)
	}
	return st
}

// Health reports whether OCR works and at least one provider is configured.
func (p *Processor) Health(ctx context.Context) entity.Health {
	jobs := p.OCR.Jobs
	h := entity.Health{
		LLM:       p.Parse.Gateway.Configured(),
		Providers: p.Parse.Gateway.Providers(),
		Queue:     jobs.Stats(),
	}
	if e := jobs.Engine(); e != nil {
		h.OCR.Engine = e.Name()
	}
	if err := jobs.Available(ctx); err != nil {
		h.OCR.Error = err.Error()
	} else {
		h.OCR.Available = true
	}
	if h.Providers == nil {
		h.Providers = []entity.ProviderHealth{}
	}
	return h
}

// Shutdown stops accepting submissions and drains queued jobs.
func (p *Processor) Shutdown(ctx context.Context) {
	p.OCR.Jobs.Shutdown(ctx)
}

// admit validates and classifies the payload into an immutable request.
func (p *Processor) admit(data []byte, filename, mimeType string, deadline time.Time) (entity.ExtractionRequest, error) {
	category := classify.Classify(filename, mimeType)
	if err := classify.Validate(filename, data, p.MaxFileSize); err != nil {
		return entity.ExtractionRequest{Filename: filename, Category: category}, err
	}
	if !classify.Supported(category) {
		return entity.ExtractionRequest{Filename: filename, Category: category}, classify.Unsupported(filename, mimeType)
	}
	return entity.NewExtractionRequest(data, filename, mimeType, category, deadline), nil
}

func (p *Processor) finish(logger *slog.Logger, res entity.Result, start time.Time, err error) (entity.Result, error) {
	res.Duration = time.Since(start)
	if err == nil {
		logger.Info("pipeline.extract.ok",
			"contacts", len(res.Contacts),
			"provider", res.Provider,
			"low_confidence", res.LowConfidence,
			"elapsed_ms", res.Duration.Milliseconds(),
		)
		return res, nil
	}
	err = taxonomy(err)
	res.ErrorCode = common.CodeOf(err)
	if res.ErrorCode == common.CodeOcrTimeout || res.ErrorCode == common.CodeRequestDeadlineExceeded {
		res.TimedOut = true
	}
	logger.Warn("pipeline.extract.failed",
		"code", res.ErrorCode,
		"job_id", res.JobID,
		"timed_out", res.TimedOut,
		"contacts", len(res.Contacts),
		"elapsed_ms", res.Duration.Milliseconds(),
		"error", err,
	)
	return res, err
}

// taxonomy makes sure nothing but an AppError leaves the pipeline.
func taxonomy(err error) error {
	var ae *common.AppError
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return common.NewTaxonomyError(common.CodeRequestDeadlineExceeded, "request deadline", err)
	case errors.Is(err, common.ErrShuttingDown):
		return common.NewAppError(common.CodeInternal, "shutting down", err)
	}
	return common.NewTaxonomyError(common.CodeInternal, "pipeline", err)
}

func withRequestID(ctx context.Context) context.Context {
	if common.RequestIDFromContext(ctx) != "" {
		return ctx
	}
	return common.WithRequestID(ctx, uuid.NewString())
}
