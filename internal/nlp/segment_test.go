package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitKeepsSourceOrder(t *testing.T) {
	text := "Acme Logistics Ltd\n" +
		"Jane Doe\njane@acme.com\n+1 555 123 4567\n\n" +
		"John Roe\njohn@acme.com\n"
	es := New(DefaultOptions()).Extract(text)
	segs := Split(text, es)
	require.Len(t, segs, 2)

	first, ok := segs[0].Best(Person, "")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", first.Value)
	assert.True(t, segs[0].Has(Org, "acme logistics ltd"), "letterhead joins the first contact")
	assert.True(t, segs[0].Has(Phone, "+1 555 123 4567"))

	second, ok := segs[1].Best(Person, "")
	require.True(t, ok)
	assert.Equal(t, "John Roe", second.Value)
	assert.True(t, segs[1].Has(Email, "john@acme.com"))
	assert.False(t, segs[1].Has(Email, "jane@acme.com"))
}

func TestSplitAnchorsOnEmailWithoutPeople(t *testing.T) {
	text := "sales@acme.com\nsupport@acme.com"
	segs := Split(text, New(DefaultOptions()).Extract(text))
	require.Len(t, segs, 2)
	assert.True(t, segs[1].Has(Email, "support@acme.com"))
}

func TestSplitFoldsNameWithoutContactDetails(t *testing.T) {
	text := "Jane Doe\nHarbour View\njane@acme.com"
	segs := Split(text, New(DefaultOptions()).Extract(text))
	require.Len(t, segs, 1)
	best, _ := segs[0].Best(Person, "")
	assert.Equal(t, "Jane Doe", best.Value)
}

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split("", Entities{}))
}

func TestBestAbove(t *testing.T) {
	s := Segment{Candidates: []Candidate{
		{Kind: Org, Value: "Acme Exports", Confidence: 0.45},
	}}
	_, ok := s.BestAbove(Org, "", 0.6)
	assert.False(t, ok)
	c, ok := s.BestAbove(Org, "", 0.4)
	assert.True(t, ok)
	assert.Equal(t, "Acme Exports", c.Value)
}
