package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	for _, kp := range knownProviders {
		for _, suffix := range []string{"API_KEY", "MODEL", "BASE_URL", "REGION", "PRIORITY", "TIMEOUT", "VARIANT"} {
			t.Setenv(envName(kp.name, suffix), "")
		}
	}
	t.Setenv("LLM_PROVIDERS", "")
	t.Setenv("AWS_REGION", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg := LoadConfig()
	assert.Equal(t, 45*time.Second, cfg.Request.Timeout)
	assert.Equal(t, 20*time.Second, cfg.OCR.JobTimeout)
	assert.Equal(t, 64, cfg.OCR.QueueCapacity)
	assert.Equal(t, DefaultDownsizeTiers(), cfg.OCR.DownsizeTiers)
	assert.Equal(t, int64(25_000_000), cfg.OCR.MaxPixels)
	assert.InDelta(t, 0.6, cfg.Fusion.MinBackfillConfidence, 1e-9)
	assert.Empty(t, cfg.LLM.Providers)
	require.NoError(t, cfg.Validate())
}

func TestLoadProvidersOrderAndPriority(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("LLM_PROVIDERS", "groq, openai")
	t.Setenv("GROQ_API_KEY", "g")
	t.Setenv("OPENAI_API_KEY", "o")
	t.Setenv("OPENAI_TIMEOUT", "3s")

	ps := loadProviders("groq, openai", 8*time.Second)
	require.Len(t, ps, 2)

	assert.Equal(t, "groq", ps[0].Name)
	assert.Equal(t, "openai_compatible", ps[0].Variant)
	assert.Equal(t, "https://api.groq.com/openai/v1", ps[0].BaseURL)
	assert.Equal(t, 2, ps[0].Priority)
	assert.Equal(t, 8*time.Second, ps[0].Timeout)

	assert.Equal(t, "openai", ps[1].Name)
	assert.Equal(t, 1, ps[1].Priority)
	assert.Equal(t, 3*time.Second, ps[1].Timeout)
}

func TestLoadProvidersAutoDetectsKeys(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "a")

	ps := loadProviders("", time.Second)
	require.Len(t, ps, 1)
	assert.Equal(t, "anthropic", ps[0].Name)
	assert.True(t, ps[0].HasCredential())
}

func TestUsableSkipsMissingCredentials(t *testing.T) {
	c := LLMConfig{Providers: []ProviderSettings{
		{Name: "openai", Variant: "openai"},
		{Name: "ollama", Variant: "ollama", BaseURL: "http://localhost:11434"},
		{Name: "bedrock", Variant: "bedrock"},
	}}
	usable := c.Usable()
	require.Len(t, usable, 1)
	assert.Equal(t, "ollama", usable[0].Name)
}

func TestParseDownsizeTiers(t *testing.T) {
	tiers, err := ParseDownsizeTiers("2048:800, 0:1600")
	require.NoError(t, err)
	assert.Equal(t, []DownsizeTier{{2048, 800}, {0, 1600}}, tiers)

	_, err = ParseDownsizeTiers("2048")
	assert.Error(t, err)
	_, err = ParseDownsizeTiers("1:0")
	assert.Error(t, err)
}

func TestValidateRejectsBrokenCascade(t *testing.T) {
	clearProviderEnv(t)
	cfg := LoadConfig()
	cfg.Request.Timeout = 10 * time.Second
	cfg.LLM.Providers = []ProviderSettings{
		{Name: "a", Variant: "openai", APIKey: "k", Timeout: 8 * time.Second},
		{Name: "b", Variant: "openai", APIKey: "k", Timeout: 8 * time.Second},
	}
	cfg.OCR.JobTimeout = 5 * time.Second

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, CodeConfig, CodeOf(err))
	assert.Contains(t, err.Error(), "provider timeouts")
}

func TestValidateRejectsZeroWeights(t *testing.T) {
	clearProviderEnv(t)
	cfg := LoadConfig()
	cfg.Fusion.WeightLLM, cfg.Fusion.WeightCompleteness, cfg.Fusion.WeightEntity = 0, 0, 0
	assert.Error(t, cfg.Validate())
}

func TestMaxPixelsFromEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OCR_MAX_PIXELS", "1000000")
	cfg := LoadConfig()
	assert.Equal(t, int64(1_000_000), cfg.OCR.MaxPixels)

	cfg.OCR.MaxPixels = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
}
