package llm

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/contact-extractor/internal/nlp"
)

// maxPromptText bounds the document text sent to a provider.
const maxPromptText = 6000

// BuildSystemPrompt composes the system message: output contract, category vocabulary and
// formatting rules.
func BuildSystemPrompt(req Request) string {
	var catLine string
	if len(req.Categories) > 0 {
		catLine = "For 'category' choose exactly one of: " + strings.Join(req.Categories, ", ") + ". " +
			"Pick the category describing the contact's organization or role; if none fits, use '" +
			req.Categories[len(req.Categories)-1] + "'."
	} else {
		catLine = "For 'category' use a short business label such as Exporter or Government."
	}

	parts := []string{
		"You extract business contact details from documents such as business cards, letterheads, email signatures and contact lists.",
		"Return ONLY JSON of the form {\"contacts\": [...]} that matches the provided JSON Schema.",
		"Emit one object per distinct person or organization, in the order they appear in the text.",
		"Fields: name, designation (job title), company, phone, email, website, address, category, notes, confidence (0..1).",
		catLine,
		"Copy emails and phone numbers exactly as written; keep the leading + and country code of phones.",
		"Do not invent values. If a field is not present, omit it. Never output null.",
		"JSON Schema:\n" + mustJSON(BuildContactsJSONSchema()),
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the document text plus what the offline extractor already saw.
func BuildUserPrompt(req Request) string {
	var b strings.Builder
	if f := strings.TrimSpace(req.Filename); f != "" {
		b.WriteString("Filename: ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	if req.ContentCategory != "" {
		b.WriteString("Source type: ")
		b.WriteString(string(req.ContentCategory))
		b.WriteString("\n")
	}

	if hints := entityHints(req.Entities); hints != "" {
		b.WriteString("\nEntities detected by a rule-based extractor (may be incomplete or wrong):\n")
		b.WriteString(hints)
	}

	text := strings.TrimSpace(req.Text)
	b.WriteString("\nDocument text:\n")
	if len(text) > maxPromptText {
		b.WriteString(clip(text, maxPromptText))
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	b.WriteString("\n\nReturn ONLY JSON that matches the schema.")
	return b.String()
}

func entityHints(es nlp.Entities) string {
	if es.Len() == 0 {
		return ""
	}
	rows := []struct {
		label string
		kind  nlp.Kind
	}{
		{"Persons", nlp.Person},
		{"Organizations", nlp.Org},
		{"Emails", nlp.Email},
		{"Phones", nlp.Phone},
		{"Addresses", nlp.Address},
	}
	var b strings.Builder
	for _, r := range rows {
		if vs := es.Values(r.kind); len(vs) > 0 {
			b.WriteString("- ")
			b.WriteString(r.label)
			b.WriteString(": ")
			b.WriteString(strings.Join(vs, "; "))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// clip cuts s to at most n bytes without splitting a UTF-8 sequence.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && n < len(s) && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
