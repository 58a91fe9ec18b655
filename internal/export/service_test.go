package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/entity"
)

func TestContactsXLSX(t *testing.T) {
	results := []entity.Result{
		{Filename: "card.png", Contacts: []entity.Contact{
			{Name: "Jane Doe", Email: "jane@acme.com", Category: constants.Exporter, Confidence: 0.72, Provenance: constants.ProvenanceFused},
		}},
		{Filename: "list.csv", Contacts: []entity.Contact{
			{Name: "John Roe", Phone: "+44 20 7946 0958", Category: constants.Others, Provenance: constants.ProvenanceNLPOnly, LowConfidence: true},
			{Email: "sales@acme.com", Notes: strings.Repeat("n", 200), Category: constants.Others},
		}},
		{Filename: "empty.txt"},
	}

	b, err := NewService(common.DiscardLogger()).ContactsXLSX(results)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, headers, rows[0])

	assert.Equal(t, "Jane Doe", rows[1][0])
	assert.Equal(t, "jane@acme.com", rows[1][4])
	assert.Equal(t, "Exporter", rows[1][7])
	assert.Equal(t, "fused", rows[1][10])
	assert.Equal(t, "card.png", rows[1][12])

	assert.Equal(t, "John Roe", rows[2][0])
	assert.Equal(t, "yes", rows[2][11])
	assert.Equal(t, "no", rows[1][11])
	assert.Equal(t, "list.csv", rows[3][12])
	assert.Equal(t, 140, len([]rune(rows[3][8])))
}

func TestWriteContactsXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewService(nil).WriteContactsXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "é", truncate("éé", 1))
}
