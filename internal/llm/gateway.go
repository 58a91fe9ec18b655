package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/entity"
)

// Outcome is the Gateway's answer. No extraction is a valid outcome, not an error: it routes
// the pipeline to NLP-only fusion.
type Outcome struct {
	Extraction *Extraction
	Attempts   []entity.ProviderAttempt
	Cached     bool
}

// OK reports whether a provider produced an extraction.
func (o Outcome) OK() bool { return o.Extraction != nil }

// Err describes a failed fallback chain. It is nil on success and when no provider was tried.
func (o Outcome) Err() error {
	if o.OK() || len(o.Attempts) == 0 {
		return nil
	}
	parts := make([]string, len(o.Attempts))
	for i, a := range o.Attempts {
		parts[i] = a.Provider + ": " + a.Outcome
	}
	return common.NewTaxonomyError(common.CodeAllProvidersFailed,
		fmt.Sprintf("%d provider(s) failed (%s)", len(o.Attempts), strings.Join(parts, ", ")), nil)
}

type providerStats struct {
	attempts atomic.Int64
	failures atomic.Int64
}

// Gateway walks the registry in descending priority, one bounded call per provider, and stops
// at the first success. Fallback is forward-only: a provider is never retried within a request.
type Gateway struct {
	registry *Registry
	log      *slog.Logger
	stats    map[string]*providerStats
	cache    *expirable.LRU[string, Extraction]
}

type GatewayOption func(*Gateway)

// WithCache keeps successful extractions keyed by request content. A size of 0 disables it.
func WithCache(size int, ttl time.Duration) GatewayOption {
	return func(g *Gateway) {
		if size > 0 {
			g.cache = expirable.NewLRU[string, Extraction](size, nil, ttl)
		}
	}
}

func NewGateway(registry *Registry, logger *slog.Logger, opts ...GatewayOption) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		registry: registry,
		log:      logger,
		stats:    make(map[string]*providerStats, registry.Len()),
	}
	for _, cfg := range registry.Configs() {
		g.stats[cfg.Name] = &providerStats{}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configured reports whether at least one provider may be called.
func (g *Gateway) Configured() bool { return g != nil && g.registry.Len() > 0 }

// Extract issues the contextual extraction call. Every attempt is bounded by
// min(provider timeout, time left on ctx); the call is cancelled when the bound fires.
func (g *Gateway) Extract(ctx context.Context, req Request) Outcome {
	if !g.Configured() {
		return Outcome{}
	}

	key := cacheKey(req)
	if g.cache != nil {
		if ex, ok := g.cache.Get(key); ok {
			g.log.Debug("llm.gateway.cache_hit", "provider", ex.Provider)
			return Outcome{Extraction: &ex, Cached: true}
		}
	}

	var out Outcome
	for _, p := range g.registry.Providers() {
		if err := ctx.Err(); err != nil {
			g.log.Warn("llm.gateway.deadline", "remaining_providers", g.registry.Len()-len(out.Attempts), "error", err)
			break
		}

		cfg := p.Config()
		ex, attempt := g.call(ctx, p, req)
		out.Attempts = append(out.Attempts, attempt)

		st := g.stats[cfg.Name]
		st.attempts.Add(1)
		if attempt.Outcome != entity.AttemptOK {
			st.failures.Add(1)
			g.log.Warn("llm.gateway.attempt_failed",
				"provider", cfg.Name,
				"outcome", attempt.Outcome,
				"error", attempt.Error,
				"elapsed_ms", attempt.Elapsed.Milliseconds(),
			)
			continue
		}

		g.log.Info("llm.gateway.ok",
			"provider", cfg.Name,
			"attempts", len(out.Attempts),
			"contacts", len(ex.Contacts),
			"elapsed_ms", attempt.Elapsed.Milliseconds(),
		)
		if g.cache != nil {
			g.cache.Add(key, ex)
		}
		out.Extraction = &ex
		return out
	}

	if len(out.Attempts) > 0 {
		g.log.Warn("llm.gateway.all_failed", "attempts", len(out.Attempts))
	}
	return out
}

type callResult struct {
	ex  Extraction
	err error
}

func (g *Gateway) call(ctx context.Context, p Provider, req Request) (Extraction, entity.ProviderAttempt) {
	cfg := p.Config()
	attempt := entity.ProviderAttempt{Provider: cfg.Name, Variant: string(cfg.Variant)}
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		ex, err := p.Extract(callCtx, req)
		done <- callResult{ex: ex, err: err}
	}()

	var res callResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		// the deferred cancel aborts the vendor call; we do not wait for it to unwind
		res.err = callCtx.Err()
	}
	attempt.Elapsed = time.Since(start)

	switch {
	case res.err == nil:
		attempt.Outcome = entity.AttemptOK
		if res.ex.Provider == "" {
			res.ex.Provider, res.ex.Variant, res.ex.Model = cfg.Name, cfg.Variant, cfg.Model
		}
		return res.ex, attempt
	case errors.Is(res.err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		attempt.Outcome = entity.AttemptTimeout
	default:
		attempt.Outcome = entity.AttemptError
	}
	attempt.Error = res.err.Error()
	return Extraction{}, attempt
}

// Providers reports per-provider configuration and call counters for health checks.
func (g *Gateway) Providers() []entity.ProviderHealth {
	if g == nil {
		return nil
	}
	cfgs := g.registry.Configs()
	out := make([]entity.ProviderHealth, len(cfgs))
	for i, cfg := range cfgs {
		st := g.stats[cfg.Name]
		out[i] = entity.ProviderHealth{
			Name:     cfg.Name,
			Variant:  string(cfg.Variant),
			Model:    cfg.Model,
			Priority: cfg.Priority,
			Attempts: st.attempts.Load(),
			Failures: st.failures.Load(),
		}
	}
	return out
}

func cacheKey(req Request) string {
	h := sha256.New()
	h.Write([]byte(req.ContentCategory))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(req.Categories, "\x1f")))
	h.Write([]byte{0})
	h.Write([]byte(req.Text))
	return hex.EncodeToString(h.Sum(nil))
}
