package common

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/contact-extractor/constants"
)

// Vocabulary is the recognized business-category set plus the keywords used to infer it.
type Vocabulary struct {
	Categories []constants.Category          `yaml:"categories"`
	Keywords   []constants.CategoryKeywords  `yaml:"keywords"`
	Fallback   constants.Category            `yaml:"fallback"`
	Synonyms   map[string]constants.Category `yaml:"synonyms"`
}

// DefaultVocabulary returns the built-in categories and keyword table.
func DefaultVocabulary() Vocabulary {
	kw := make([]constants.CategoryKeywords, len(constants.DefaultCategoryKeywords))
	copy(kw, constants.DefaultCategoryKeywords)
	return Vocabulary{
		Categories: constants.AllCategories(),
		Keywords:   kw,
		Fallback:   constants.FallbackCategory,
	}
}

// LoadVocabulary reads a YAML vocabulary file. Missing sections fall back to the defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, NewAppError(CodeConfig, "read vocabulary file", err)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return Vocabulary{}, NewAppError(CodeConfig, "parse vocabulary file", err)
	}
	def := DefaultVocabulary()
	if len(v.Categories) == 0 {
		v.Categories = def.Categories
	}
	if len(v.Keywords) == 0 {
		v.Keywords = def.Keywords
	}
	if v.Fallback == "" {
		v.Fallback = def.Fallback
	}
	if err := v.Validate(); err != nil {
		return Vocabulary{}, err
	}
	return v, nil
}

// Validate checks that every keyword entry and the fallback name a known category.
func (v Vocabulary) Validate() error {
	if !v.Has(v.Fallback) {
		return NewAppError(CodeConfig, fmt.Sprintf("fallback category %q is not in the vocabulary", v.Fallback), ErrInvalidInput)
	}
	for _, k := range v.Keywords {
		if !v.Has(k.Category) {
			return NewAppError(CodeConfig, fmt.Sprintf("keywords reference unknown category %q", k.Category), ErrInvalidInput)
		}
	}
	return nil
}

func (v Vocabulary) Has(c constants.Category) bool {
	for _, x := range v.Categories {
		if x == c {
			return true
		}
	}
	return false
}

func (v Vocabulary) Names() []string {
	out := make([]string, len(v.Categories))
	for i, c := range v.Categories {
		out[i] = string(c)
	}
	return out
}

// Canonicalize maps free text onto a vocabulary category, honoring configured synonyms
// before the built-in ones.
func (v Vocabulary) Canonicalize(input string) (constants.Category, bool) {
	norm := strings.ToLower(strings.TrimSpace(input))
	if norm == "" {
		return v.Fallback, false
	}
	if c, ok := v.Synonyms[norm]; ok && v.Has(c) {
		return c, true
	}
	for _, c := range v.Categories {
		if strings.ToLower(string(c)) == norm {
			return c, true
		}
	}
	if c, ok := constants.Canonicalize(norm); ok && v.Has(c) {
		return c, true
	}
	return v.Fallback, false
}

// Infer returns the first category whose keyword occurs in any of texts.
func (v Vocabulary) Infer(texts ...string) (constants.Category, bool) {
	joined := strings.ToLower(strings.Join(texts, " "))
	if strings.TrimSpace(joined) == "" {
		return v.Fallback, false
	}
	for _, entry := range v.Keywords {
		for _, kw := range entry.Keywords {
			if containsWord(joined, kw) {
				return entry.Category, true
			}
		}
	}
	return v.Fallback, false
}

// containsWord matches kw on word boundaries so "import" does not fire inside "important".
func containsWord(haystack, kw string) bool {
	kw = strings.ToLower(strings.TrimSpace(kw))
	if kw == "" {
		return false
	}
	from := 0
	for {
		i := strings.Index(haystack[from:], kw)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(kw)
		if boundary(haystack, start-1) && boundary(haystack, end) {
			return true
		}
		from = start + 1
	}
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
}
