package openai

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config for an OpenAI-compatible chat/completions endpoint (groq, together, perplexity,
// deepseek or any self-hosted gateway).
type Config struct {
	APIKey      string
	BaseURL     string  // default https://api.openai.com/v1
	Model       string  // e.g., "mixtral-8x7b-32768"
	Temperature float32 // 0..2
	JSONMode    bool    // send response_format json_object
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a client. Per-call deadlines come from the caller's context, so the
// http.Client carries no timeout of its own unless one is supplied.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger,
	}
}
