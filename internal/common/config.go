package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/timeout"
)

// Config holds all application configuration
type Config struct {
	Server         ServerConfig
	Logging        LoggingConfig
	Request        RequestConfig
	OCR            OCRConfig
	LLM            LLMConfig
	Fusion         FusionConfig
	Ingest         IngestConfig
	VocabularyFile string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

type LoggingConfig struct {
	Level slog.Level
	File  string
}

// RequestConfig bounds a single extraction request.
type RequestConfig struct {
	MaxFileSize int64
	Timeout     time.Duration
	SyncCeiling time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine        string // "cli" | "gosseract"
	TesseractBin  string
	Language      string
	TessdataDir   string
	PSM           int
	OEM           int
	Workers       int
	QueueCapacity int
	JobTimeout    time.Duration
	Retention     int
	RetentionTTL  time.Duration
	DownsizeTiers []DownsizeTier
	Grayscale     bool
	MaxPixels     int64 // width*height cap checked before an image is decoded
}

// DownsizeTier caps the longest image side at MaxDimension for payloads of at least MinBytes.
type DownsizeTier struct {
	MinBytes     int64
	MaxDimension int
}

// ProviderSettings describes one configured LLM provider.
type ProviderSettings struct {
	Name     string
	Variant  string
	APIKey   string
	Model    string
	BaseURL  string
	Region   string
	Priority int
	Timeout  time.Duration
}

// HasCredential reports whether the provider has what it needs to be called.
func (p ProviderSettings) HasCredential() bool {
	switch p.Variant {
	case "ollama":
		return p.BaseURL != ""
	case "bedrock":
		return p.Region != ""
	default:
		return p.APIKey != ""
	}
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Providers   []ProviderSettings
	Temperature float32
	CacheSize   int
	CacheTTL    time.Duration
}

// Usable returns the providers that carry credentials.
func (c LLMConfig) Usable() []ProviderSettings {
	out := make([]ProviderSettings, 0, len(c.Providers))
	for _, p := range c.Providers {
		if p.HasCredential() {
			out = append(out, p)
		}
	}
	return out
}

type FusionConfig struct {
	MinBackfillConfidence float64
	WeightLLM             float64
	WeightCompleteness    float64
	WeightEntity          float64
	LowConfidence         float64
}

type IngestConfig struct {
	WatchDir string
	Debounce time.Duration
}

type providerDefaults struct {
	variant string
	model   string
	baseURL string
}

// knownProviders lists the provider names recognized in LLM_PROVIDERS, in default priority order.
var knownProviders = []struct {
	name string
	providerDefaults
}{
	{"openai", providerDefaults{"openai", "gpt-4o-mini", ""}},
	{"anthropic", providerDefaults{"anthropic", "claude-3-haiku-20240307", ""}},
	{"gemini", providerDefaults{"gemini", "gemini-1.5-flash", ""}},
	{"groq", providerDefaults{"openai_compatible", "mixtral-8x7b-32768", "https://api.groq.com/openai/v1"}},
	{"together", providerDefaults{"openai_compatible", "meta-llama/Llama-2-7b-chat-hf", "https://api.together.xyz/v1"}},
	{"perplexity", providerDefaults{"openai_compatible", "llama-3.1-sonar-small-128k-online", "https://api.perplexity.ai"}},
	{"deepseek", providerDefaults{"openai_compatible", "deepseek-chat", "https://api.deepseek.com"}},
	{"ollama", providerDefaults{"ollama", "llama3.1", "http://localhost:11434"}},
	{"bedrock", providerDefaults{"bedrock", "anthropic.claude-3-haiku-20240307-v1:0", ""}},
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr: getEnv("GRPC_ADDR", ":9090"),
		},
		Logging: LoggingConfig{
			Level: ParseLogLevel(getEnv("LOG_LEVEL", "info")),
			File:  getEnv("LOG_FILE", ""),
		},
		Request: RequestConfig{
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", constants.DefaultMaxFileSize),
			Timeout:     getEnvAsDuration("REQUEST_TIMEOUT", 45*time.Second),
			SyncCeiling: getEnvAsDuration("SYNC_CEILING", 10*time.Second),
		},
		OCR: OCRConfig{
			Engine:        strings.ToLower(getEnv("OCR_ENGINE", "cli")),
			TesseractBin:  getEnv("TESSERACT_BIN", "tesseract"),
			Language:      getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			PSM:           getEnvAsInt("OCR_PSM", 6),
			OEM:           getEnvAsInt("OCR_OEM", 1),
			Workers:       getEnvAsInt("OCR_WORKERS", 4),
			QueueCapacity: getEnvAsInt("OCR_QUEUE_CAPACITY", 64),
			JobTimeout:    getEnvAsDuration("OCR_JOB_TIMEOUT", 20*time.Second),
			Retention:     getEnvAsInt("OCR_JOB_RETENTION", 1024),
			RetentionTTL:  getEnvAsDuration("OCR_JOB_TTL", time.Hour),
			DownsizeTiers: parseTiersOrDefault(getEnv("OCR_DOWNSIZE_TIERS", "")),
			Grayscale:     getEnvAsBool("OCR_GRAYSCALE", true),
			MaxPixels:     getEnvAsInt64("OCR_MAX_PIXELS", 25_000_000),
		},
		LLM: LLMConfig{
			Providers:   loadProviders(getEnv("LLM_PROVIDERS", ""), getEnvAsDuration("LLM_PROVIDER_TIMEOUT", 8*time.Second)),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			CacheSize:   getEnvAsInt("LLM_CACHE_SIZE", 256),
			CacheTTL:    getEnvAsDuration("LLM_CACHE_TTL", 10*time.Minute),
		},
		Fusion: FusionConfig{
			MinBackfillConfidence: getEnvAsFloat64("FUSION_MIN_BACKFILL_CONFIDENCE", 0.6),
			WeightLLM:             getEnvAsFloat64("FUSION_WEIGHT_LLM", 0.3),
			WeightCompleteness:    getEnvAsFloat64("FUSION_WEIGHT_COMPLETENESS", 0.5),
			WeightEntity:          getEnvAsFloat64("FUSION_WEIGHT_ENTITY", 0.2),
			LowConfidence:         getEnvAsFloat64("FUSION_LOW_CONFIDENCE", 0.4),
		},
		Ingest: IngestConfig{
			WatchDir: getEnv("WATCH_DIR", ""),
			Debounce: getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
		},
		VocabularyFile: getEnv("VOCABULARY_FILE", ""),
	}
}

// loadProviders resolves LLM_PROVIDERS into settings. An empty list selects every known
// API-key provider whose key is present; the first listed provider gets the highest priority.
func loadProviders(list string, defaultTimeout time.Duration) []ProviderSettings {
	var names []string
	if strings.TrimSpace(list) == "" {
		for _, kp := range knownProviders {
			if kp.variant == "ollama" || kp.variant == "bedrock" {
				continue
			}
			if os.Getenv(envName(kp.name, "API_KEY")) != "" {
				names = append(names, kp.name)
			}
		}
	} else {
		for _, n := range strings.Split(list, ",") {
			if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
				names = append(names, n)
			}
		}
	}

	out := make([]ProviderSettings, 0, len(names))
	for i, name := range names {
		def, ok := lookupProvider(name)
		variant := getEnv(envName(name, "VARIANT"), def.variant)
		if !ok && variant == "" {
			// unknown names speak the OpenAI wire format unless told otherwise
			variant = "openai_compatible"
		}
		out = append(out, ProviderSettings{
			Name:     name,
			Variant:  variant,
			APIKey:   getEnv(envName(name, "API_KEY"), ""),
			Model:    getEnv(envName(name, "MODEL"), def.model),
			BaseURL:  getEnv(envName(name, "BASE_URL"), def.baseURL),
			Region:   getEnv(envName(name, "REGION"), os.Getenv("AWS_REGION")),
			Priority: getEnvAsInt(envName(name, "PRIORITY"), len(names)-i),
			Timeout:  getEnvAsDuration(envName(name, "TIMEOUT"), defaultTimeout),
		})
	}
	return out
}

func lookupProvider(name string) (providerDefaults, bool) {
	for _, kp := range knownProviders {
		if kp.name == name {
			return kp.providerDefaults, true
		}
	}
	return providerDefaults{}, false
}

func envName(provider, suffix string) string {
	return strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_" + suffix
}

// ParseDownsizeTiers parses "minBytes:maxDim,..." pairs.
func ParseDownsizeTiers(s string) ([]DownsizeTier, error) {
	var tiers []DownsizeTier
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lhs, rhs, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("tier %q: want minBytes:maxDimension", part)
		}
		minBytes, err := strconv.ParseInt(strings.TrimSpace(lhs), 10, 64)
		if err != nil || minBytes < 0 {
			return nil, fmt.Errorf("tier %q: bad byte threshold", part)
		}
		maxDim, err := strconv.Atoi(strings.TrimSpace(rhs))
		if err != nil || maxDim <= 0 {
			return nil, fmt.Errorf("tier %q: bad max dimension", part)
		}
		tiers = append(tiers, DownsizeTier{MinBytes: minBytes, MaxDimension: maxDim})
	}
	return tiers, nil
}

func DefaultDownsizeTiers() []DownsizeTier {
	return []DownsizeTier{
		{MinBytes: 4 << 20, MaxDimension: 1200},
		{MinBytes: 1 << 20, MaxDimension: 1600},
		{MinBytes: 0, MaxDimension: 2400},
	}
}

func parseTiersOrDefault(s string) []DownsizeTier {
	if strings.TrimSpace(s) == "" {
		return DefaultDownsizeTiers()
	}
	tiers, err := ParseDownsizeTiers(s)
	if err != nil {
		slog.Warn("config.invalid_downsize_tiers", "value", s, "error", err)
		return DefaultDownsizeTiers()
	}
	return tiers
}

// ParseLogLevel maps a level name to slog.Level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Budget derives the deadline budget from the request, OCR and provider settings.
func (c *Config) Budget() timeout.Budget {
	usable := c.LLM.Usable()
	providers := make([]time.Duration, 0, len(usable))
	for _, p := range usable {
		providers = append(providers, p.Timeout)
	}
	return timeout.Budget{
		Request:     c.Request.Timeout,
		OCRJob:      c.OCR.JobTimeout,
		SyncCeiling: c.Request.SyncCeiling,
		Providers:   providers,
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Request.MaxFileSize <= 0 {
		return NewAppError(CodeConfig, "MAX_FILE_SIZE must be positive", ErrInvalidInput)
	}
	if c.OCR.Engine != "cli" && c.OCR.Engine != "gosseract" {
		return NewAppError(CodeConfig, fmt.Sprintf("OCR_ENGINE %q is not one of cli, gosseract", c.OCR.Engine), ErrInvalidInput)
	}
	if c.OCR.Workers <= 0 || c.OCR.QueueCapacity <= 0 {
		return NewAppError(CodeConfig, "OCR_WORKERS and OCR_QUEUE_CAPACITY must be positive", ErrInvalidInput)
	}
	if c.OCR.MaxPixels <= 0 {
		return NewAppError(CodeConfig, "OCR_MAX_PIXELS must be positive", ErrInvalidInput)
	}
	if len(c.OCR.DownsizeTiers) == 0 {
		return NewAppError(CodeConfig, "OCR_DOWNSIZE_TIERS must define at least one tier", ErrInvalidInput)
	}
	f := c.Fusion
	if f.WeightLLM < 0 || f.WeightCompleteness < 0 || f.WeightEntity < 0 || f.WeightLLM+f.WeightCompleteness+f.WeightEntity == 0 {
		return NewAppError(CodeConfig, "fusion weights must be non-negative and not all zero", ErrInvalidInput)
	}
	if f.MinBackfillConfidence < 0 || f.MinBackfillConfidence > 1 {
		return NewAppError(CodeConfig, "FUSION_MIN_BACKFILL_CONFIDENCE must be within [0,1]", ErrInvalidInput)
	}
	for _, p := range c.LLM.Providers {
		if p.Timeout <= 0 {
			return NewAppError(CodeConfig, fmt.Sprintf("provider %s: timeout must be positive", p.Name), ErrInvalidInput)
		}
	}
	if err := c.Budget().Validate(); err != nil {
		return NewAppError(CodeConfig, "timeout cascade", fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	return nil
}
