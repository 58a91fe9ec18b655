package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/ocr"
)

// Router dispatches a payload to the adapter for its content category and format.
type Router struct {
	pdf *PDF
	log *slog.Logger
}

func NewRouter(pdf PDFConfig, runner ocr.Runner, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{pdf: NewPDF(pdf, runner, logger), log: logger}
}

func (r *Router) Extract(ctx context.Context, data []byte, filename string, category constants.ContentCategory) (TextExtractionResult, error) {
	start := time.Now()
	res, err := r.extract(ctx, data, filename, category)
	res.SourceType = category
	res.Duration = time.Since(start)
	if err != nil {
		r.log.Warn("extract.failed", "filename", filename, "category", string(category), "error", err)
		return res, err
	}
	r.log.Debug("extract.ok",
		"filename", filename,
		"category", string(category),
		"method", res.Method,
		"text_len", len(res.Text),
		"image_bytes", len(res.Image),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (r *Router) extract(ctx context.Context, data []byte, filename string, category constants.ContentCategory) (TextExtractionResult, error) {
	ext := constants.NormalizeExt(filepath.Ext(filename))

	switch category {
	case constants.ContentImage:
		return TextExtractionResult{Image: data, Pages: 1, Method: MethodImage}, nil

	case constants.ContentText:
		text, warns := DecodeText(data)
		return TextExtractionResult{Text: text, Pages: 1, Method: MethodPlain, Warnings: warns}, nil

	case constants.ContentPDF:
		res, err := r.pdf.Extract(ctx, data)
		if err != nil {
			if ctx.Err() != nil {
				return res, failure(ctx, "pdf", err)
			}
			return res, common.NewTaxonomyError(common.CodeOcrEngineFailure, "pdf extraction failed", err)
		}
		return res, nil

	case constants.ContentDocument:
		var (
			text   string
			err    error
			method string
		)
		switch ext {
		case "docx":
			text, err = DOCXText(data)
			method = MethodDOCX
		case "odt":
			text, err = ODTText(data)
			method = MethodODT
		default:
			return TextExtractionResult{}, unsupported(filename, "no text adapter for ."+ext+" documents")
		}
		if err != nil {
			return TextExtractionResult{}, failure(ctx, method, err)
		}
		return TextExtractionResult{Text: text, Pages: 1, Method: method}, nil

	case constants.ContentStructuredRecord:
		var (
			text   string
			rows   int
			err    error
			method string
		)
		switch ext {
		case "csv":
			text, rows, err = CSVText(data, 0)
			method = MethodCSV
		case "tsv":
			text, rows, err = CSVText(data, '\t')
			method = MethodCSV
		case "vcf", "vcard":
			text, rows, err = VCardText(data)
			method = MethodVCard
		case "xlsx":
			text, rows, err = XLSXText(data)
			method = MethodXLSX
		default:
			// declared by MIME type only: sniff vCard, else treat as CSV
			if isVCard(data) {
				text, rows, err = VCardText(data)
				method = MethodVCard
			} else if ext == "" {
				text, rows, err = CSVText(data, 0)
				method = MethodCSV
			} else {
				return TextExtractionResult{}, unsupported(filename, "no text adapter for ."+ext+" records")
			}
		}
		if err != nil {
			return TextExtractionResult{}, failure(ctx, method, err)
		}
		return TextExtractionResult{Text: text, Pages: rows, Method: method}, nil
	}
	return TextExtractionResult{}, unsupported(filename, fmt.Sprintf("content category %q", category))
}

func isVCard(data []byte) bool {
	text, _ := DecodeText(data)
	return len(text) >= 11 && (text[:11] == "BEGIN:VCARD" || text[:11] == "begin:vcard")
}

func unsupported(filename, msg string) error {
	return common.NewTaxonomyError(common.CodeUnsupportedFileType, filename+": "+msg, nil)
}

func failure(ctx context.Context, method string, err error) error {
	if ctx.Err() != nil {
		return common.NewTaxonomyError(common.CodeRequestDeadlineExceeded, method+" extraction interrupted", ctx.Err())
	}
	return common.NewTaxonomyError(common.CodeInvalidInput, method+" extraction failed", err)
}
