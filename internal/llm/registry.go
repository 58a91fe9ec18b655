package llm

import (
	"fmt"
	"slices"
)

// Registry is the ordered set of usable providers, built once at startup and passed to the
// Gateway. It is read-only after construction.
type Registry struct {
	providers []Provider
}

// NewRegistry orders providers by descending priority. Ties keep the order given.
func NewRegistry(ps ...Provider) (*Registry, error) {
	seen := make(map[string]bool, len(ps))
	out := make([]Provider, 0, len(ps))
	for _, p := range ps {
		if p == nil {
			continue
		}
		cfg := p.Config()
		if cfg.Name == "" {
			return nil, fmt.Errorf("provider with variant %q has no name", cfg.Variant)
		}
		if _, err := ParseVariant(string(cfg.Variant)); err != nil {
			return nil, fmt.Errorf("provider %s: %w", cfg.Name, err)
		}
		if seen[cfg.Name] {
			return nil, fmt.Errorf("provider %s registered twice", cfg.Name)
		}
		if cfg.Timeout <= 0 {
			return nil, fmt.Errorf("provider %s: timeout must be positive", cfg.Name)
		}
		seen[cfg.Name] = true
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b Provider) int {
		return b.Config().Priority - a.Config().Priority
	})
	return &Registry{providers: out}, nil
}

// Providers returns the providers in fallback order.
func (r *Registry) Providers() []Provider {
	if r == nil {
		return nil
	}
	return slices.Clone(r.providers)
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.providers)
}

// Configs lists the provider descriptors in fallback order.
func (r *Registry) Configs() []ProviderConfig {
	if r == nil {
		return nil
	}
	out := make([]ProviderConfig, len(r.providers))
	for i, p := range r.providers {
		out[i] = p.Config()
	}
	return out
}
