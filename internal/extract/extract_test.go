package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/common"
)

type fakeRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, name string, _ []byte, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	if err := f.errs[name]; err != nil {
		return nil, []byte("boom"), err
	}
	return f.outputs[name], nil, nil
}

func zipped(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestCSVText(t *testing.T) {
	text, rows, err := CSVText([]byte("Name,Email,Phone\nJane Doe,jane@acme.com,+1 555 123 4567\n,,\n\"Roe, John\",john@acme.com,\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.Equal(t, "Name, Email, Phone\nJane Doe, jane@acme.com, +1 555 123 4567\nRoe, John, john@acme.com\n", text)

	text, _, err = CSVText([]byte("Name;Company\nJane Doe;Acme Exports\n"), 0)
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Doe, Acme Exports")
}

func TestVCardText(t *testing.T) {
	card := "BEGIN:VCARD\r\nVERSION:3.0\r\nN:Doe;Jane;;;\r\nFN:Jane Doe\r\nORG:Acme Exports;Sales\r\n" +
		"TITLE:Export Manager\r\nTEL;TYPE=WORK:+1 555 123 4567\r\nitem1.EMAIL;TYPE=INTERNET:jane@acme.com\r\n" +
		"ADR;TYPE=WORK:;;12 Harbour Road;Lagos;;;Nigeria\r\nNOTE:met at the expo\\, 2024\r\nEND:VCARD\r\n" +
		"BEGIN:VCARD\r\nN:Roe;John\r\nEMAIL:john@acme.com\r\nEND:VCARD\r\n"
	text, cards, err := VCardText([]byte(card))
	require.NoError(t, err)
	assert.Equal(t, 2, cards)
	assert.Equal(t, "Jane Doe\nCompany: Acme Exports, Sales\nTitle: Export Manager\nTel: +1 555 123 4567\n"+
		"Email: jane@acme.com\nAddress: 12 Harbour Road, Lagos, Nigeria\nNote: met at the expo, 2024\n\n"+
		"John Roe\nEmail: john@acme.com\n\n", text)

	_, _, err = VCardText([]byte("hello"))
	assert.Error(t, err)
}

func TestVCardUnfoldsContinuationLines(t *testing.T) {
	text, _, err := VCardText([]byte("BEGIN:VCARD\nFN:Jane\n  Doe\nEND:VCARD\n"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n\n", text)
}

func TestXLSXText(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "Email"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Jane Doe", "jane@acme.com"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, rows, err := XLSXText(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, "Name, Email\nJane Doe, jane@acme.com\n", text)

	_, _, err = XLSXText([]byte("not a workbook"))
	assert.Error(t, err)
}

func TestDOCXText(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Jane </w:t></w:r><w:r><w:t>Doe</w:t></w:r></w:p>
<w:p><w:r><w:t>Export Manager</w:t><w:br/><w:t>Acme Exports</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Email</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>jane@acme.com</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
</w:body></w:document>`
	text, err := DOCXText(zipped(t, map[string]string{"word/document.xml": doc}))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nExport Manager\nAcme Exports\nEmail, jane@acme.com\n", text)

	_, err = DOCXText(zipped(t, map[string]string{"other.xml": "<a/>"}))
	assert.ErrorContains(t, err, "word/document.xml")
}

func TestODTText(t *testing.T) {
	content := `<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"><office:body><office:text>
<text:h>Contacts</text:h><text:p>Jane<text:s/>Doe, <text:span>jane@acme.com</text:span></text:p>
</office:text></office:body></office:document-content>`
	text, err := ODTText(zipped(t, map[string]string{"content.xml": content}))
	require.NoError(t, err)
	assert.Equal(t, "Contacts\nJane Doe, jane@acme.com\n", text)
}

func TestPDFTextLayer(t *testing.T) {
	r := &fakeRunner{outputs: map[string][]byte{"pdftotext": []byte("Jane Doe\njane@acme.com\n\fpage two text\n")}}
	res, err := NewPDF(PDFConfig{}, r, nil).Extract(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, MethodPDFText, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.False(t, res.NeedsOCR())
	require.Len(t, r.calls, 1)
	assert.Equal(t, "pdftotext -layout -enc UTF-8 -eol unix - -", r.calls[0])
}

func TestPDFWithoutTextLayerIsRasterized(t *testing.T) {
	r := &fakeRunner{outputs: map[string][]byte{"pdftotext": []byte("\f\f"), "pdftoppm": []byte("PNGDATA")}}
	res, err := NewPDF(PDFConfig{DPI: 200}, r, nil).Extract(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, MethodPDFRaster, res.Method)
	assert.True(t, res.NeedsOCR())
	assert.Equal(t, []byte("PNGDATA"), res.Image)
	require.Len(t, r.calls, 2)
	assert.Equal(t, "pdftoppm -png -r 200 -f 1 -l 1 -singlefile -", r.calls[1])
}

func TestRouter(t *testing.T) {
	r := NewRouter(PDFConfig{}, &fakeRunner{errs: map[string]error{"pdftotext": errors.New("exit 1")}}, nil)
	ctx := context.Background()

	res, err := r.Extract(ctx, []byte("\xEF\xBB\xBFJane Doe"), "card.txt", constants.ContentText)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", res.Text)
	assert.Equal(t, constants.ContentText, res.SourceType)

	res, err = r.Extract(ctx, []byte{0x89, 'P', 'N', 'G'}, "card.png", constants.ContentImage)
	require.NoError(t, err)
	assert.True(t, res.NeedsOCR())

	res, err = r.Extract(ctx, []byte("BEGIN:VCARD\nFN:Jane Doe\nEND:VCARD\n"), "upload", constants.ContentStructuredRecord)
	require.NoError(t, err)
	assert.Equal(t, MethodVCard, res.Method)

	_, err = r.Extract(ctx, []byte("x"), "letter.doc", constants.ContentDocument)
	assert.ErrorIs(t, err, common.ErrUnsupportedFileType)

	_, err = r.Extract(ctx, []byte("x"), "x.bin", constants.ContentUnknown)
	assert.Equal(t, common.CodeUnsupportedFileType, common.CodeOf(err))

	_, err = r.Extract(ctx, []byte("%PDF"), "a.pdf", constants.ContentPDF)
	assert.Equal(t, common.CodeOcrEngineFailure, common.CodeOf(err))

	_, err = r.Extract(ctx, []byte("garbage"), "a.docx", constants.ContentDocument)
	assert.Equal(t, common.CodeInvalidInput, common.CodeOf(err))
}
