package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// fieldSynonyms maps keys models commonly emit onto the schema's names.
var fieldSynonyms = map[string]string{
	"full_name":      "name",
	"fullname":       "name",
	"person":         "name",
	"contact_name":   "name",
	"title":          "designation",
	"job_title":      "designation",
	"position":       "designation",
	"role":           "designation",
	"organization":   "company",
	"organisation":   "company",
	"company_name":   "company",
	"org":            "company",
	"telephone":      "phone",
	"tel":            "phone",
	"mobile":         "phone",
	"phone_number":   "phone",
	"email_address":  "email",
	"e-mail":         "email",
	"url":            "website",
	"web":            "website",
	"business_type":  "category",
	"categories":     "category",
	"location":       "address",
	"postal_address": "address",
	"note":           "notes",
	"comments":       "notes",
}

var synonymKeys = slices.Sorted(maps.Keys(fieldSynonyms))

// NormalizeAndSanitizeJSON reshapes a provider's JSON so it validates against the contacts schema:
// - wraps a bare array or a single contact object into {"contacts": [...]}
// - renames known synonyms (telephone -> phone, title -> designation, ...)
// - collapses list values (categories, phones) to one string, coerces numbers to strings
// - drops null/empty values and unknown keys
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var items []any
	switch t := doc.(type) {
	case []any:
		items = t
	case map[string]any:
		if cs, ok := t["contacts"]; ok {
			switch c := cs.(type) {
			case []any:
				items = c
			case map[string]any:
				items = []any{c}
			case nil:
			default:
				return nil, nil, fmt.Errorf("sanitize: contacts has type %T", cs)
			}
		} else {
			items = []any{t}
		}
	default:
		return nil, nil, fmt.Errorf("sanitize: unexpected top-level %T", doc)
	}

	var dropped []string
	contacts := make([]any, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("contacts[%d](type)", i))
			continue
		}
		c, d := sanitizeContact(m)
		dropped = append(dropped, d...)
		if len(c) > 0 {
			contacts = append(contacts, c)
		}
	}

	out, err := json.Marshal(map[string]any{"contacts": contacts})
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Debug("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func sanitizeContact(in map[string]any) (map[string]any, []string) {
	m := maps.Clone(in)
	var dropped []string

	// 1) rename synonyms, never overwriting a value already present
	for _, from := range synonymKeys {
		to := fieldSynonyms[from]
		v, ok := m[from]
		if !ok {
			continue
		}
		if _, exists := m[to]; !exists {
			m[to] = v
		}
		delete(m, from)
		dropped = append(dropped, from+"->"+to)
	}

	// 2) coerce values to the schema's types
	out := make(map[string]any, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		v := m[k]
		if k == "confidence" {
			if f, ok := coerceConfidence(v); ok {
				out[k] = f
			} else {
				dropped = append(dropped, k+"(type)")
			}
			continue
		}
		if !isContactField(k) {
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		s, ok := coerceString(v)
		if !ok {
			dropped = append(dropped, k+"(type)")
			continue
		}
		if s = strings.TrimSpace(s); s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
			dropped = append(dropped, k+"(empty)")
			continue
		}
		out[k] = s
	}
	return out, dropped
}

func isContactField(k string) bool {
	for _, f := range contactFieldNames {
		if f == k {
			return true
		}
	}
	return false
}

func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return "", false
	case []any:
		// first usable element; models return lists of phones or categories
		for _, e := range t {
			if s, ok := coerceString(e); ok && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
		return "", true
	case nil:
		return "", true
	default:
		return "", false
	}
}

func coerceConfidence(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		p, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return 0, false
		}
		if strings.HasSuffix(strings.TrimSpace(t), "%") {
			p /= 100
		}
		f = p
	default:
		return 0, false
	}
	if f > 1 && f <= 100 {
		f /= 100
	}
	if f < 0 || f > 1 {
		return 0, false
	}
	return f, true
}
