package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/entity"
	"github.com/joseph-ayodele/contact-extractor/internal/fusion"
	"github.com/joseph-ayodele/contact-extractor/internal/llm"
	"github.com/joseph-ayodele/contact-extractor/internal/nlp"
)

// ParseStage turns text into contacts: entity extraction, the provider fallback chain, then fusion.
type ParseStage struct {
	Entities   *nlp.Extractor
	Gateway    *llm.Gateway
	Fusion     *fusion.Engine
	Categories []string
	Logger     *slog.Logger
}

func NewParseStage(ner *nlp.Extractor, gw *llm.Gateway, fuse *fusion.Engine, vocab common.Vocabulary, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Entities: ner, Gateway: gw, Fusion: fuse, Categories: vocab.Names(), Logger: logger}
}

// Run fills res with contacts. It never fails: a failed provider chain is recorded as a
// warning and fusion proceeds on the extractor's candidates alone.
func (s *ParseStage) Run(ctx context.Context, text string, category constants.ContentCategory, filename string, res *entity.Result) {
	logger := common.LoggerFrom(ctx, s.Logger)
	es := s.Entities.Extract(text)
	logger.Debug("pipeline.entities",
		"persons", len(es[nlp.Person]),
		"orgs", len(es[nlp.Org]),
		"emails", len(es[nlp.Email]),
		"phones", len(es[nlp.Phone]),
	)

	out := s.Gateway.Extract(ctx, llm.Request{
		Text:            text,
		ContentCategory: category,
		Filename:        filename,
		Entities:        es,
		Categories:      s.Categories,
	})
	res.Attempts = out.Attempts
	if out.OK() {
		res.Provider = out.Extraction.Provider
	} else if err := out.Err(); err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	}

	res.Contacts = s.Fusion.Fuse(fusion.Input{Text: text, Entities: es, LLM: out.Extraction})
	if res.Contacts == nil {
		res.Contacts = []entity.Contact{}
	}
	low := 0
	for _, c := range res.Contacts {
		if c.LowConfidence {
			low++
		}
	}
	if low > 0 {
		res.LowConfidence = true
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%s: %d contact(s) below the confidence threshold", common.CodeLowConfidenceResult, low))
	}
	logger.Info("pipeline.parse.ok",
		"contacts", len(res.Contacts),
		"low_confidence", low,
		"provider", res.Provider,
		"attempts", len(out.Attempts),
		"cached", out.Cached,
	)
}
