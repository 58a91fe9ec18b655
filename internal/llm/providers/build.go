// Package providers turns provider settings into the Gateway's registry.
package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/llm"
	"github.com/joseph-ayodele/contact-extractor/internal/llm/bedrock"
	"github.com/joseph-ayodele/contact-extractor/internal/llm/gemini"
	"github.com/joseph-ayodele/contact-extractor/internal/llm/langchain"
	"github.com/joseph-ayodele/contact-extractor/internal/llm/openai"
)

// Build constructs one provider per usable setting and returns them as a registry. Settings
// without credentials are skipped; a setting that fails to construct is an error.
func Build(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (*llm.Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var ps []llm.Provider
	for _, s := range cfg.Providers {
		if !s.HasCredential() {
			logger.Info("llm.provider.skipped", "provider", s.Name, "reason", "no credential")
			continue
		}
		variant, err := llm.ParseVariant(s.Variant)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "provider "+s.Name, err)
		}
		completer, err := newCompleter(ctx, variant, s, cfg.Temperature, logger)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "provider "+s.Name, err)
		}
		pc := llm.ProviderConfig{
			Name:          s.Name,
			Variant:       variant,
			Model:         s.Model,
			Priority:      s.Priority,
			Timeout:       s.Timeout,
			HasCredential: true,
		}
		ps = append(ps, llm.NewCompletionProvider(pc, completer, logger))
		logger.Info("llm.provider.registered",
			"provider", s.Name,
			"variant", string(variant),
			"model", s.Model,
			"priority", s.Priority,
			"timeout", s.Timeout.String(),
		)
	}

	reg, err := llm.NewRegistry(ps...)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfig, "provider registry", err)
	}
	return reg, nil
}

func newCompleter(ctx context.Context, v llm.Variant, s common.ProviderSettings, temp float32, logger *slog.Logger) (llm.Completer, error) {
	switch v {
	case llm.VariantOpenAI, llm.VariantAnthropic, llm.VariantOllama:
		return langchain.NewModel(langchain.Config{
			Variant:     v,
			APIKey:      s.APIKey,
			Model:       s.Model,
			BaseURL:     s.BaseURL,
			Temperature: temp,
		})
	case llm.VariantGemini:
		return gemini.New(ctx, gemini.Config{APIKey: s.APIKey, Model: s.Model, Temperature: temp})
	case llm.VariantBedrock:
		return bedrock.New(ctx, bedrock.Config{Region: s.Region, Model: s.Model, Temperature: temp})
	case llm.VariantOpenAICompatible:
		return openai.NewClient(openai.Config{
			APIKey:      s.APIKey,
			BaseURL:     s.BaseURL,
			Model:       s.Model,
			Temperature: temp,
			JSONMode:    true,
		}, nil, logger.With("provider", s.Name)), nil
	}
	return nil, fmt.Errorf("no implementation for variant %q", v)
}
