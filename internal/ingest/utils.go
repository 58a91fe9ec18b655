package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/contact-extractor/constants"
)

// AllowedExt checks if a file extension belongs to a content category the pipeline reads.
func AllowedExt(ext string) bool {
	_, ok := constants.ExtensionCategories[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
