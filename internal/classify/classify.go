// Package classify maps an incoming filename and MIME type onto a content category.
package classify

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/common"
)

// Classify returns exactly one content category. The extension wins; the MIME type is
// consulted only when the extension is missing or unrecognized.
func Classify(filename, mimeType string) constants.ContentCategory {
	ext := constants.NormalizeExt(filepath.Ext(strings.TrimSpace(filename)))
	if cat, ok := constants.ExtensionCategories[ext]; ok {
		return cat
	}
	return fromMime(mimeType)
}

func fromMime(mimeType string) constants.ContentCategory {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if mt == "" {
		return constants.ContentUnknown
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	if cat, ok := constants.MimeCategories[mt]; ok {
		return cat
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return constants.ContentImage
	case strings.HasPrefix(mt, "text/"):
		return constants.ContentText
	}
	return constants.ContentUnknown
}

// Supported reports whether the category can be processed at all.
func Supported(cat constants.ContentCategory) bool {
	return cat != constants.ContentUnknown && cat != ""
}

// Validate checks the upload envelope before classification is acted on.
func Validate(filename string, data []byte, maxSize int64) error {
	v := common.NewValidator()
	v.Field("filename", filename, common.Required, common.MaxLength(255)).
		Field("data", data, common.Required, common.MaxBytes(maxSize))
	return v.Error()
}

// Unsupported builds the typed result for an unknown category.
func Unsupported(filename, mimeType string) error {
	return common.NewTaxonomyError(common.CodeUnsupportedFileType,
		fmt.Sprintf("cannot process %q (mime %q)", filename, mimeType), nil)
}
