package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyCompletion is returned when a vendor answers with no content.
var ErrEmptyCompletion = errors.New("empty completion")

// CompletionProvider adapts any vendor Completer to Provider. Prompting, JSON recovery,
// sanitizing and schema validation live here so vendor packages only move text.
type CompletionProvider struct {
	cfg       ProviderConfig
	completer Completer
	log       *slog.Logger
}

func NewCompletionProvider(cfg ProviderConfig, completer Completer, logger *slog.Logger) *CompletionProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompletionProvider{
		cfg:       cfg,
		completer: completer,
		log:       logger.With("provider", cfg.Name, "variant", string(cfg.Variant)),
	}
}

func (p *CompletionProvider) Config() ProviderConfig { return p.cfg }

func (p *CompletionProvider) Extract(ctx context.Context, req Request) (Extraction, error) {
	rid := uuid.NewString()
	start := time.Now()

	p.log.Debug("llm.extract.start",
		"req_id", rid,
		"model", p.cfg.Model,
		"text_len", len(req.Text),
		"entities", req.Entities.Len(),
		"categories", len(req.Categories),
	)

	completion, err := p.completer.Complete(ctx, BuildSystemPrompt(req), BuildUserPrompt(req))
	if err != nil {
		return Extraction{}, err
	}
	if completion == "" {
		return Extraction{}, ErrEmptyCompletion
	}

	raw, err := ExtractJSON(completion)
	if err != nil {
		p.log.Warn("llm.extract.no_json", "req_id", rid, "completion", truncate(completion, 256))
		return Extraction{}, err
	}

	// Validate strictly first; sanitize and re-validate on failure.
	if err := ValidateContactsJSON(raw); err != nil {
		cleaned, dropped, sErr := NormalizeAndSanitizeJSON(raw, p.log)
		if sErr != nil {
			return Extraction{}, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateContactsJSON(cleaned); vErr != nil {
			p.log.Warn("llm.extract.schema_validation_failed", "req_id", rid, "error", vErr)
			return Extraction{}, fmt.Errorf("schema validation failed: %w", vErr)
		}
		p.log.Debug("llm.extract.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		raw = cleaned
	}

	var doc struct {
		Contacts []ContactFields `json:"contacts"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Extraction{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	contacts := doc.Contacts[:0]
	for _, c := range doc.Contacts {
		if c = c.Trimmed(); !c.Empty() {
			contacts = append(contacts, c)
		}
	}

	p.log.Info("llm.extract.ok",
		"req_id", rid,
		"model", p.cfg.Model,
		"contacts", len(contacts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Extraction{
		Provider: p.cfg.Name,
		Variant:  p.cfg.Variant,
		Model:    p.cfg.Model,
		Contacts: contacts,
		Raw:      raw,
	}, nil
}
