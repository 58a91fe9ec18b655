package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/extract"
	"github.com/joseph-ayodele/contact-extractor/internal/fusion"
	"github.com/joseph-ayodele/contact-extractor/internal/llm"
	"github.com/joseph-ayodele/contact-extractor/internal/llm/providers"
	"github.com/joseph-ayodele/contact-extractor/internal/nlp"
	"github.com/joseph-ayodele/contact-extractor/internal/ocr"
	"github.com/joseph-ayodele/contact-extractor/internal/ocr/tesseract"
	"github.com/joseph-ayodele/contact-extractor/internal/timeout"
)

// Build assembles a Processor from configuration. The provider registry is built here once and
// handed to the gateway.
func Build(ctx context.Context, cfg *common.Config, vocab common.Vocabulary, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runner := ocr.ExecRunner{Logger: logger}
	engine := newEngine(cfg.OCR, runner, logger)
	jobs := ocr.NewManager(engine, logger,
		ocr.WithWorkers(cfg.OCR.Workers),
		ocr.WithQueueSize(cfg.OCR.QueueCapacity),
		ocr.WithJobTimeout(cfg.OCR.JobTimeout),
		ocr.WithFollowUpTimeout(cfg.Request.Timeout),
		ocr.WithRetention(cfg.OCR.Retention, cfg.OCR.RetentionTTL),
		ocr.WithPreprocessor(ocr.NewPreprocessor(cfg.OCR.DownsizeTiers, cfg.OCR.Grayscale).WithMaxPixels(cfg.OCR.MaxPixels)),
		ocr.WithLanguages(strings.Split(cfg.OCR.Language, "+")...),
	)

	registry, err := providers.Build(ctx, cfg.LLM, logger)
	if err != nil {
		jobs.Shutdown(ctx)
		return nil, err
	}
	gw := llm.NewGateway(registry, logger, llm.WithCache(cfg.LLM.CacheSize, cfg.LLM.CacheTTL))

	opts := nlp.DefaultOptions()
	opts.Vocabulary = vocab
	timeouts := timeout.New(cfg.Budget())

	router := extract.NewRouter(extract.PDFConfig{}, runner, logger)
	ocrStage := NewOCRStage(router, jobs, timeouts, logger)
	parse := NewParseStage(nlp.New(opts), gw, fusion.New(fusion.ConfigFrom(cfg.Fusion), vocab, logger), vocab, logger)

	logger.Info("pipeline.ready",
		"ocr_engine", engine.Name(),
		"providers", registry.Len(),
		"request_timeout", cfg.Request.Timeout.String(),
		"sync_ceiling", cfg.Request.SyncCeiling.String(),
	)
	return NewProcessor(logger, timeouts, ocrStage, parse, cfg.Request.MaxFileSize), nil
}

func newEngine(cfg common.OCRConfig, runner ocr.Runner, logger *slog.Logger) ocr.Engine {
	if cfg.Engine == "gosseract" {
		return tesseract.New(tesseract.Config{
			Language:    cfg.Language,
			TessdataDir: cfg.TessdataDir,
			PSM:         cfg.PSM,
			MaxInFlight: cfg.Workers,
		})
	}
	return ocr.NewCLIEngine(ocr.CLIConfig{
		Binary:        cfg.TesseractBin,
		Language:      cfg.Language,
		TessdataDir:   cfg.TessdataDir,
		PSM:           cfg.PSM,
		OEM:           cfg.OEM,
		TSVConfidence: true,
	}, runner, logger)
}
