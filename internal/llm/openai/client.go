package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/contact-extractor/internal/llm"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Temperature    float32        `json:"temperature"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete implements llm.Completer with a text-only chat/completions call.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if c.cfg.JSONMode {
		body.ResponseFormat = map[string]any{"type": "json_object"}
	}

	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	var cc chatResponse
	if err := llm.PostJSON(ctx, c.http, c.cfg.BaseURL+"/chat/completions", body, headers, &cc, c.logger); err != nil {
		return "", fmt.Errorf("chat completions: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat completions response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

var _ llm.Completer = (*Client)(nil)
