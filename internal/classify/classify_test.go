package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/common"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		mime     string
		want     constants.ContentCategory
	}{
		{"card.JPG", "", constants.ContentImage},
		{"scan.tiff", "", constants.ContentImage},
		{"brochure.pdf", "", constants.ContentPDF},
		{"letter.docx", "", constants.ContentDocument},
		{"notes.txt", "", constants.ContentText},
		{"leads.csv", "", constants.ContentStructuredRecord},
		{"people.vcf", "", constants.ContentStructuredRecord},
		{"sheet.xlsx", "", constants.ContentStructuredRecord},
		{"upload", "image/png", constants.ContentImage},
		{"upload", "application/pdf", constants.ContentPDF},
		{"upload", "text/plain; charset=utf-8", constants.ContentText},
		{"upload", "text/vcard", constants.ContentStructuredRecord},
		{"upload.bin", "application/octet-stream", constants.ContentUnknown},
		{"archive.zip", "", constants.ContentUnknown},
		{"", "", constants.ContentUnknown},
		// extension beats a conflicting MIME type
		{"card.png", "application/pdf", constants.ContentImage},
	}
	for _, tt := range tests {
		t.Run(tt.filename+"|"+tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.filename, tt.mime))
		})
	}
}

func TestUnsupportedIsTyped(t *testing.T) {
	err := Unsupported("archive.zip", "")
	assert.ErrorIs(t, err, common.ErrUnsupportedFileType)
	assert.Equal(t, common.CodeUnsupportedFileType, common.CodeOf(err))
	assert.False(t, Supported(constants.ContentUnknown))
	assert.True(t, Supported(constants.ContentPDF))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("a.txt", []byte("hi"), 10))
	assert.Error(t, Validate("a.txt", nil, 10))
	assert.Error(t, Validate("a.txt", make([]byte, 11), 10))
	assert.Error(t, Validate("", []byte("x"), 10))
}
