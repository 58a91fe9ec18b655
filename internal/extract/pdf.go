package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/contact-extractor/internal/ocr"
)

// PDFConfig names the poppler binaries.
type PDFConfig struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // if empty -> "pdftoppm"
	DPI       int    // raster resolution for scanned PDFs; default 300
	// MinTextChars is the amount of text below which a PDF is treated as scanned.
	MinTextChars int
}

// PDF extracts the text layer with pdftotext and rasterizes the first page with pdftoppm when
// there is none, so the caller can OCR it. The payload goes in on stdin; a done context kills
// the process.
type PDF struct {
	cfg    PDFConfig
	runner ocr.Runner
	log    *slog.Logger
}

func NewPDF(cfg PDFConfig, runner ocr.Runner, logger *slog.Logger) *PDF {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.ExecRunner{Logger: logger}
	}
	return &PDF{cfg: cfg, runner: runner, log: logger}
}

func (p *PDF) Extract(ctx context.Context, data []byte) (TextExtractionResult, error) {
	// pdftotext -layout -enc UTF-8 -eol unix - -
	out, errb, err := p.runner.Run(ctx, p.cfg.Pdftotext, data, "-layout", "-enc", "UTF-8", "-eol", "unix", "-", "-")
	if err != nil {
		if ctx.Err() != nil {
			return TextExtractionResult{}, ctx.Err()
		}
		return TextExtractionResult{}, fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	text, warns := DecodeText(out)
	// a form-feed \f is the page separator
	pages := 1 + strings.Count(strings.TrimRight(text, "\f\n"), "\f")
	if len(strings.TrimSpace(text)) >= p.cfg.MinTextChars {
		return TextExtractionResult{Text: text, Pages: pages, Method: MethodPDFText, Warnings: warns}, nil
	}

	p.log.Info("extract.pdf.no_text_layer", "chars", len(strings.TrimSpace(text)), "pages", pages)
	// pdftoppm -png -r 300 -f 1 -l 1 -singlefile - writes the page to stdout
	img, errb, err := p.runner.Run(ctx, p.cfg.Pdftoppm, data, "-png", "-r", fmt.Sprint(p.cfg.DPI), "-f", "1", "-l", "1", "-singlefile", "-")
	if err != nil {
		if ctx.Err() != nil {
			return TextExtractionResult{}, ctx.Err()
		}
		return TextExtractionResult{}, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	if len(img) == 0 {
		return TextExtractionResult{}, fmt.Errorf("pdftoppm produced no image")
	}
	if pages > 1 {
		warns = append(warns, fmt.Sprintf("scanned pdf: only page 1 of %d is recognized", pages))
	}
	return TextExtractionResult{Image: img, Pages: pages, Method: MethodPDFRaster, Warnings: warns}, nil
}
