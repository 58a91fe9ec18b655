package entity

import (
	"time"

	"github.com/joseph-ayodele/contact-extractor/constants"
)

// ExtractionRequest is one payload entering the pipeline. It is built once and never mutated.
type ExtractionRequest struct {
	Data     []byte                    `json:"-"`
	Filename string                    `json:"filename"`
	MimeType string                    `json:"mime_type,omitempty"`
	Category constants.ContentCategory `json:"category"`
	Deadline time.Time                 `json:"deadline"`
}

// NewExtractionRequest copies data so later changes by the caller cannot leak in.
func NewExtractionRequest(data []byte, filename, mimeType string, category constants.ContentCategory, deadline time.Time) ExtractionRequest {
	buf := make([]byte, len(data))
	copy(buf, data)
	return ExtractionRequest{
		Data:     buf,
		Filename: filename,
		MimeType: mimeType,
		Category: category,
		Deadline: deadline,
	}
}

// Size returns the payload length in bytes.
func (r ExtractionRequest) Size() int64 { return int64(len(r.Data)) }
