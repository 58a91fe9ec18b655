package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/nlp"
)

func testConfig() ProviderConfig {
	return ProviderConfig{Name: "groq", Variant: VariantOpenAICompatible, Model: "m", Priority: 1, Timeout: time.Second}
}

func TestCompletionProviderParsesFencedJSONWithSynonyms(t *testing.T) {
	var gotSystem, gotUser string
	c := CompleterFunc(func(_ context.Context, system, user string) (string, error) {
		gotSystem, gotUser = system, user
		return "Here you go:\n```json\n[{\"full_name\": \"Jane Doe\", \"title\": \"Export Manager\", " +
			"\"organization\": \"Acme Exports\", \"email\": \"jane@acme.com\", \"telephone\": 15551234567, " +
			"\"categories\": [\"Exporter\"], \"confidence\": \"90%\", \"linkedin\": \"janedoe\"}]\n```", nil
	})

	text := "Jane Doe, Export Manager, Acme Exports, jane@acme.com"
	req := Request{
		Text:            text,
		ContentCategory: constants.ContentText,
		Filename:        "card.txt",
		Entities:        nlp.New(nlp.DefaultOptions()).Extract(text),
		Categories:      constants.AsStringSlice(),
	}
	ex, err := NewCompletionProvider(testConfig(), c, nil).Extract(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "groq", ex.Provider)
	assert.Equal(t, VariantOpenAICompatible, ex.Variant)
	require.Len(t, ex.Contacts, 1)
	got := ex.Contacts[0]
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "Export Manager", got.Designation)
	assert.Equal(t, "Acme Exports", got.Company)
	assert.Equal(t, "15551234567", got.Phone)
	assert.Equal(t, "Exporter", got.Category)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)

	assert.Contains(t, gotSystem, "Deputy High Commissioner")
	assert.Contains(t, gotUser, "Filename: card.txt")
	assert.Contains(t, gotUser, "Persons: Jane Doe")
	assert.Contains(t, gotUser, text)
}

func TestCompletionProviderRejectsProse(t *testing.T) {
	c := CompleterFunc(func(context.Context, string, string) (string, error) {
		return "I could not find any contact details.", nil
	})
	_, err := NewCompletionProvider(testConfig(), c, nil).Extract(context.Background(), Request{Text: "x"})
	assert.Error(t, err)
}

func TestCompletionProviderPropagatesVendorError(t *testing.T) {
	boom := errors.New("429 too many requests")
	c := CompleterFunc(func(context.Context, string, string) (string, error) { return "", boom })
	_, err := NewCompletionProvider(testConfig(), c, nil).Extract(context.Background(), Request{Text: "x"})
	assert.ErrorIs(t, err, boom)

	empty := CompleterFunc(func(context.Context, string, string) (string, error) { return "", nil })
	_, err = NewCompletionProvider(testConfig(), empty, nil).Extract(context.Background(), Request{Text: "x"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestCompletionProviderDropsEmptyContacts(t *testing.T) {
	c := CompleterFunc(func(context.Context, string, string) (string, error) {
		return `{"contacts": [{}, {"name": "  "}, {"email": "a@b.co"}]}`, nil
	})
	ex, err := NewCompletionProvider(testConfig(), c, nil).Extract(context.Background(), Request{Text: "x"})
	require.NoError(t, err)
	require.Len(t, ex.Contacts, 1)
	assert.Equal(t, "a@b.co", ex.Contacts[0].Email)
}

func TestUserPromptTruncatesLongText(t *testing.T) {
	p := BuildUserPrompt(Request{Text: strings.Repeat("é", maxPromptText)})
	assert.Contains(t, p, "(truncated)")
	assert.True(t, strings.Contains(p, "é"))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"contacts": []}`, `{"contacts": []}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"embedded", `Sure! {"a": "x}"} hope it helps`, `{"a": "x}"}`},
		{"array", `result: [{"name": "Jane"}]`, `[{"name": "Jane"}]`},
		{"nested", `x {"a": {"b": [1, 2]}} y`, `{"a": {"b": [1, 2]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}

	_, err := ExtractJSON("no braces here")
	assert.Error(t, err)
	_, err = ExtractJSON(`{"unterminated": `)
	assert.Error(t, err)
}

func TestNormalizeAndSanitizeJSON(t *testing.T) {
	in := `{"contacts": [
		{"name": "Jane Doe", "mobile": ["+1 555 123 4567", "+1 555 000 0000"], "website": null,
		 "confidence": 87, "notes": "N/A", "extra": true},
		"garbage"
	]}`
	out, dropped, err := NormalizeAndSanitizeJSON([]byte(in), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"contacts": [{"name": "Jane Doe", "phone": "+1 555 123 4567", "confidence": 0.87}]}`, string(out))
	assert.Contains(t, dropped, "mobile->phone")
	assert.Contains(t, dropped, "extra(unknown)")
	assert.Contains(t, dropped, "contacts[1](type)")
	require.NoError(t, ValidateContactsJSON(out))
}

func TestSanitizeKeepsExistingFieldOverSynonym(t *testing.T) {
	out, _, err := NormalizeAndSanitizeJSON([]byte(`{"phone": "1", "tel": "2"}`), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"contacts": [{"phone": "1"}]}`, string(out))
}

func TestValidateContactsJSON(t *testing.T) {
	assert.NoError(t, ValidateContactsJSON([]byte(`{"contacts": [{"name": "Jane", "confidence": 0.5}]}`)))
	assert.Error(t, ValidateContactsJSON([]byte(`{"contacts": [{"name": 3}]}`)))
	assert.Error(t, ValidateContactsJSON([]byte(`{"contacts": [{"fax": "1"}]}`)))
	assert.Error(t, ValidateContactsJSON([]byte(`{"contacts": [{"confidence": 2}]}`)))
	assert.Error(t, ValidateContactsJSON([]byte(`[]`)))
}
