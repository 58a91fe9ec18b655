package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	parts []genai.Part
	resp  *genai.GenerateContentResponse
	err   error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func TestCompleteJoinsTextParts(t *testing.T) {
	fg := &fakeGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"contacts": `), genai.Text(`[]}`)}},
	}}}}
	c := &Client{gen: fg, model: defaultModel}

	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"contacts": []}`, out)
	require.Len(t, fg.parts, 1)
	assert.Equal(t, genai.Text("sys\n\nuser"), fg.parts[0])
	assert.NoError(t, c.Close())
}

func TestCompleteEmptyAndErrors(t *testing.T) {
	c := &Client{gen: &fakeGenerator{resp: &genai.GenerateContentResponse{}}}
	out, err := c.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Empty(t, out)

	c = &Client{gen: &fakeGenerator{err: errors.New("quota")}}
	_, err = c.Complete(context.Background(), "s", "u")
	assert.ErrorContains(t, err, "quota")
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
