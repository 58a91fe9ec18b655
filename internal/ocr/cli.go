package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// CLIConfig configures the tesseract binary engine.
type CLIConfig struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	Language    string // default "eng"
	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text
	OEM         int // 1 = LSTM; leave 0 to use default

	// TSVConfidence runs a second pass in TSV mode to read word confidences.
	TSVConfidence bool
}

// CLIEngine shells out to tesseract, feeding the image on stdin. The process is killed
// when the job context ends.
type CLIEngine struct {
	cfg    CLIConfig
	runner Runner
	logger *slog.Logger
}

func NewCLIEngine(cfg CLIConfig, runner Runner, logger *slog.Logger) *CLIEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &CLIEngine{cfg: cfg, runner: runner, logger: logger}
}

func (e *CLIEngine) Name() string { return "tesseract-cli" }

// Available checks that the binary resolves and answers --version.
func (e *CLIEngine) Available(ctx context.Context) error {
	if _, err := exec.LookPath(e.cfg.Binary); err != nil {
		return fmt.Errorf("tesseract binary %q: %w", e.cfg.Binary, err)
	}
	if _, errb, err := e.runner.Run(ctx, e.cfg.Binary, nil, "--version"); err != nil {
		return fmt.Errorf("tesseract --version: %w: %s", err, truncate(string(errb), 256))
	}
	return nil
}

func (e *CLIEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	// tesseract stdin stdout -l <lang> [--psm N] [--oem N] [--tessdata-dir D]
	out, errb, err := e.runner.Run(ctx, e.cfg.Binary, in.Image, e.args(in)...)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	res := Result{Text: string(out)}

	if e.cfg.TSVConfidence {
		conf, err := e.tsvConfidence(ctx, in)
		if err != nil {
			e.logger.Warn("ocr.cli.tsv_confidence_failed", "job_id", in.ID, "error", err)
		} else {
			res.Confidence = conf
		}
	}
	return res, nil
}

func (e *CLIEngine) args(in Input) []string {
	lang := e.cfg.Language
	if len(in.Languages) > 0 {
		lang = strings.Join(in.Languages, "+")
	}
	args := []string{"stdin", "stdout", "-l", lang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

// tsvConfidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (e *CLIEngine) tsvConfidence(ctx context.Context, in Input) (float32, error) {
	args := append(e.args(in), "tsv")
	out, errb, err := e.runner.Run(ctx, e.cfg.Binary, in.Image, args...)
	if err != nil {
		return 0, fmt.Errorf("tesseract TSV: %w: %s", err, truncate(string(errb), 256))
	}
	return meanTSVConfidence(string(out)), nil
}

// meanTSVConfidence averages the conf column of a tesseract TSV dump, skipping the header
// and the -1 rows tesseract emits for non-word levels.
func meanTSVConfidence(tsv string) float32 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || len(ln) == 0 {
			continue
		} // skip header
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := strings.TrimSpace(cols[10]) // level page block par line word left top width height conf text
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / n / 100.0)
}
