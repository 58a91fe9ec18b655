package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/joseph-ayodele/contact-extractor/internal/llm"
)

type fakeModel struct {
	messages []llms.MessageContent
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

func (f *fakeModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

func TestCompleteSendsSystemAndHumanMessages(t *testing.T) {
	fm := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: `{"contacts": []}`}}}}
	m := newModel(fm, Config{Model: "gpt-4o-mini"})

	out, err := m.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"contacts": []}`, out)
	assert.Equal(t, "gpt-4o-mini", m.Model())

	require.Len(t, fm.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, fm.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, fm.messages[1].Role)
}

func TestCompleteErrors(t *testing.T) {
	m := newModel(&fakeModel{resp: &llms.ContentResponse{}}, Config{})
	_, err := m.Complete(context.Background(), "s", "u")
	assert.ErrorContains(t, err, "no response choices")

	boom := errors.New("overloaded")
	m = newModel(&fakeModel{err: boom}, Config{})
	_, err = m.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, boom)
}

func TestNewModelRequiresKeys(t *testing.T) {
	_, err := NewModel(Config{Variant: llm.VariantOpenAI, Model: "gpt-4o-mini"})
	assert.Error(t, err)
	_, err = NewModel(Config{Variant: llm.VariantAnthropic, Model: "claude"})
	assert.Error(t, err)
	_, err = NewModel(Config{Variant: llm.VariantGemini})
	assert.ErrorContains(t, err, "not served by langchaingo")
}
