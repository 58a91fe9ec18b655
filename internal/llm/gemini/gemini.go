// Package gemini backs the gemini variant with the Google generative AI client.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/contact-extractor/internal/llm"
)

const defaultModel = "gemini-1.5-flash"

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// generator is the slice of *genai.GenerativeModel we call.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Client struct {
	client *genai.Client
	gen    generator
	model  string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not found")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.ResponseMIMEType = "application/json"

	return &Client{client: client, gen: model, model: cfg.Model}, nil
}

// Complete sends the system prompt ahead of the user prompt. System instructions are set per
// call on a fresh model handle so concurrent requests never share mutable model state.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	gen := c.gen
	if c.client != nil {
		m := c.client.GenerativeModel(c.model)
		if base, ok := c.gen.(*genai.GenerativeModel); ok {
			m.GenerationConfig = base.GenerationConfig
		}
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		gen = m
	} else {
		user = system + "\n\n" + user
	}

	resp, err := gen.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

var _ llm.Completer = (*Client)(nil)
