package constants

import "strings"

// ContentCategory is the coarse kind of payload a request carries.
type ContentCategory string

const (
	ContentImage            ContentCategory = "image"
	ContentPDF              ContentCategory = "pdf"
	ContentDocument         ContentCategory = "document"
	ContentText             ContentCategory = "text"
	ContentStructuredRecord ContentCategory = "structured-record"
	ContentUnknown          ContentCategory = "unknown"
)

// ExtensionCategories holds the recognized file extensions (lowercase, no dot).
var ExtensionCategories = map[string]ContentCategory{
	"jpg":   ContentImage,
	"jpeg":  ContentImage,
	"png":   ContentImage,
	"gif":   ContentImage,
	"bmp":   ContentImage,
	"tif":   ContentImage,
	"tiff":  ContentImage,
	"webp":  ContentImage,
	"pdf":   ContentPDF,
	"doc":   ContentDocument,
	"docx":  ContentDocument,
	"odt":   ContentDocument,
	"rtf":   ContentDocument,
	"txt":   ContentText,
	"text":  ContentText,
	"md":    ContentText,
	"csv":   ContentStructuredRecord,
	"tsv":   ContentStructuredRecord,
	"xlsx":  ContentStructuredRecord,
	"xls":   ContentStructuredRecord,
	"vcf":   ContentStructuredRecord,
	"vcard": ContentStructuredRecord,
}

// MimeCategories maps exact MIME types; image/* and text/* prefixes are handled by the classifier.
var MimeCategories = map[string]ContentCategory{
	"application/pdf":    ContentPDF,
	"application/msword": ContentDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ContentDocument,
	"application/vnd.oasis.opendocument.text":                                  ContentDocument,
	"application/rtf":                                                          ContentDocument,
	"text/csv":                                                                 ContentStructuredRecord,
	"text/tab-separated-values":                                                ContentStructuredRecord,
	"text/vcard":                                                               ContentStructuredRecord,
	"text/x-vcard":                                                             ContentStructuredRecord,
	"application/vnd.ms-excel":                                                 ContentStructuredRecord,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":        ContentStructuredRecord,
}

// DefaultMaxFileSize caps uploads at 10 MiB.
const DefaultMaxFileSize = 10 << 20

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
