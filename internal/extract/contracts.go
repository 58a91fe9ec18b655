package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/contact-extractor/constants"
)

// TextExtractor turns a payload into text, or into an image that still needs OCR.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename string, category constants.ContentCategory) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Image      []byte // set when the payload must go through the OCR job manager
	Pages      int
	SourceType constants.ContentCategory
	Method     string // "plain" | "csv" | "vcard" | "xlsx" | "docx" | "odt" | "pdf-text" | "pdf-raster" | "image"
	Duration   time.Duration
	Warnings   []string
}

// NeedsOCR reports whether the result carries an image instead of text.
func (r TextExtractionResult) NeedsOCR() bool { return len(r.Image) > 0 }

// Extraction methods.
const (
	MethodPlain     = "plain"
	MethodCSV       = "csv"
	MethodVCard     = "vcard"
	MethodXLSX      = "xlsx"
	MethodDOCX      = "docx"
	MethodODT       = "odt"
	MethodPDFText   = "pdf-text"
	MethodPDFRaster = "pdf-raster"
	MethodImage     = "image"
)
