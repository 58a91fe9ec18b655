package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/nlp"
)

// Variant is the closed set of provider implementations.
type Variant string

const (
	VariantOpenAI           Variant = "openai"
	VariantAnthropic        Variant = "anthropic"
	VariantOllama           Variant = "ollama"
	VariantGemini           Variant = "gemini"
	VariantBedrock          Variant = "bedrock"
	VariantOpenAICompatible Variant = "openai_compatible"
)

var variants = []Variant{
	VariantOpenAI,
	VariantAnthropic,
	VariantOllama,
	VariantGemini,
	VariantBedrock,
	VariantOpenAICompatible,
}

func Variants() []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants)
	return out
}

// ParseVariant maps a configured variant name onto the closed set.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range variants {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown provider variant %q", s)
}

// ProviderConfig is the static descriptor of one provider. Read-only after startup.
type ProviderConfig struct {
	Name          string
	Variant       Variant
	Model         string
	Priority      int
	Timeout       time.Duration
	HasCredential bool
}

// Request is one contextual extraction call.
type Request struct {
	Text            string
	ContentCategory constants.ContentCategory
	Filename        string
	Entities        nlp.Entities
	Categories      []string
}

// ContactFields is the normalized shape we want from the LLM, one per person.
type ContactFields struct {
	Name        string  `json:"name,omitempty"`
	Designation string  `json:"designation,omitempty"`
	Company     string  `json:"company,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Email       string  `json:"email,omitempty"`
	Website     string  `json:"website,omitempty"`
	Address     string  `json:"address,omitempty"`
	Category    string  `json:"category,omitempty"` // should match the vocabulary; fusion decides
	Notes       string  `json:"notes,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"` // optional (0..1)
}

// Empty reports whether no field carries a value.
func (f ContactFields) Empty() bool {
	return f.Name == "" && f.Designation == "" && f.Company == "" && f.Phone == "" &&
		f.Email == "" && f.Website == "" && f.Address == "" && f.Category == "" && f.Notes == ""
}

// Trimmed returns f with surrounding whitespace removed from every field.
func (f ContactFields) Trimmed() ContactFields {
	for _, p := range []*string{&f.Name, &f.Designation, &f.Company, &f.Phone, &f.Email, &f.Website, &f.Address, &f.Category, &f.Notes} {
		*p = strings.TrimSpace(*p)
	}
	return f
}

// Extraction is the result of exactly one successful provider call.
type Extraction struct {
	Provider string
	Variant  Variant
	Model    string
	Contacts []ContactFields
	Raw      []byte
}

// Provider is the one contract every vendor sits behind: prompt in, structured fields out.
type Provider interface {
	Config() ProviderConfig
	Extract(ctx context.Context, req Request) (Extraction, error)
}

// Completer is a vendor chat client: system and user prompt in, raw completion text out.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, system, user string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

type funcProvider struct {
	cfg ProviderConfig
	fn  func(ctx context.Context, req Request) (Extraction, error)
}

func (p funcProvider) Config() ProviderConfig { return p.cfg }

func (p funcProvider) Extract(ctx context.Context, req Request) (Extraction, error) {
	return p.fn(ctx, req)
}

// ProviderFunc adapts a function to Provider.
func ProviderFunc(cfg ProviderConfig, fn func(ctx context.Context, req Request) (Extraction, error)) Provider {
	return funcProvider{cfg: cfg, fn: fn}
}
