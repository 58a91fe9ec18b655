package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Value
	}
	return out
}

func TestExtractInlineCard(t *testing.T) {
	text := "Jane Doe, Export Manager, Acme Exports, jane@acme.com"
	es := New(DefaultOptions()).Extract(text)

	assert.Equal(t, []string{"Jane Doe"}, values(es[Person]))
	assert.Equal(t, []string{"jane@acme.com"}, values(es[Email]))
	require.Len(t, es[Org], 1)
	assert.Equal(t, "Acme Exports", es[Org][0].Value)
	assert.Less(t, es[Org][0].Confidence, 0.6, "keyword-only organizations stay below the back-fill threshold")

	var designation, exporter bool
	for _, c := range es[Custom] {
		if c.Label == LabelDesignation && c.Value == "Export Manager" {
			designation = true
		}
		if c.Label == CategoryLabelPrefix+"Exporter" {
			exporter = true
		}
	}
	assert.True(t, designation)
	assert.True(t, exporter)

	// offsets point back into the text
	for _, c := range es.All() {
		assert.Equal(t, c.Value, text[c.Start:c.End], c.Kind)
	}
}

func TestExtractLabeledCard(t *testing.T) {
	text := "Name: Dr. Amara Okafor\n" +
		"Title: Commercial Attaché\n" +
		"Company: Ministry of Trade and Investment\n" +
		"Address: Plot 12, Harbour Road, Lagos\n" +
		"Tel: +234 (1) 555 0199\n" +
		"Email: amara.okafor@trade.gov.ng\n" +
		"Web: www.trade.gov.ng\n"
	es := New(DefaultOptions()).Extract(text)

	require.Len(t, es[Person], 1)
	assert.Equal(t, "Dr. Amara Okafor", es[Person][0].Value)
	assert.InDelta(t, confLabeled, es[Person][0].Confidence, 1e-9)

	require.Len(t, es[Org], 1)
	assert.Equal(t, "Ministry of Trade and Investment", es[Org][0].Value)
	assert.InDelta(t, confOrgLabeled, es[Org][0].Confidence, 1e-9)

	require.Len(t, es[Address], 1)
	assert.Equal(t, "Plot 12, Harbour Road, Lagos", es[Address][0].Value)

	require.Len(t, es[Phone], 1)
	assert.Equal(t, "+234 (1) 555 0199", es[Phone][0].Value)
	assert.InDelta(t, confPhoneLabeled, es[Phone][0].Confidence, 1e-9)

	assert.Equal(t, []string{"amara.okafor@trade.gov.ng"}, values(es[Email]))

	var website string
	for _, c := range es[Custom] {
		if c.Label == LabelWebsite {
			website = c.Value
		}
	}
	assert.Equal(t, "www.trade.gov.ng", website)
}

func TestPhoneRecognition(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"call 5551234567 now", []string{"5551234567"}},
		{"(555) 123-4567", []string{"(555) 123-4567"}},
		{"+1 555.123.4567", []string{"+1 555.123.4567"}},
		{"ext 12345", nil},
		{"Date: 2024-01-15", nil},
		{"ID A12345678", nil},
		{"1234567890123456789", nil},
		{"Tel: 555-123-4567 / 555-987-6543", []string{"555-123-4567", "555-987-6543"}},
		{"Tel: 555-123-4567/555-987-6543", []string{"555-123-4567", "555-987-6543"}},
		{"Fax 12/05/2024", nil},
	}
	e := New(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			es := e.Extract(tt.text)
			if tt.want == nil {
				assert.Empty(t, es[Phone])
				return
			}
			assert.Equal(t, tt.want, values(es[Phone]))
		})
	}
}

func TestNameLikeRejectsBusinessWords(t *testing.T) {
	e := New(DefaultOptions())
	assert.True(t, e.nameLike("Jane Doe"))
	assert.True(t, e.nameLike("Ludwig van Beethoven"))
	assert.True(t, e.nameLike("JOHN SMITH"))
	assert.False(t, e.nameLike("Jane"))
	assert.False(t, e.nameLike("Acme Logistics"))
	assert.False(t, e.nameLike("Sales Manager"))
	assert.False(t, e.nameLike("Room 101"))
	assert.False(t, e.nameLike("jane doe"))
}

func TestCoFounderIsADesignation(t *testing.T) {
	es := New(DefaultOptions()).Extract("Jane Doe\nCo-Founder\njane@acme.com")
	assert.Empty(t, es[Org])
	var got []string
	for _, c := range es[Custom] {
		if c.Label == LabelDesignation {
			got = append(got, c.Value)
		}
	}
	assert.Equal(t, []string{"Co-Founder"}, got)
}

func TestExtractIsDeterministic(t *testing.T) {
	text := "Acme Logistics Ltd\nJohn Roe, Director\njohn@acme.com\n+44 20 7946 0958\n"
	e := New(DefaultOptions())
	assert.Equal(t, e.Extract(text), e.Extract(text))
}

func TestExtractEmpty(t *testing.T) {
	assert.Zero(t, New(DefaultOptions()).Extract("  \n ").Len())
}
