package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/rahul/outing/internal/outing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	content  string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, o := range options {
		o(&m.opts)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.content}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type memoryTranscript struct {
	exchanges []Exchange
}

func (t *memoryTranscript) Record(e Exchange) {
	t.exchanges = append(t.exchanges, e)
}

var plannerSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"subtasks": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{"subtasks"},
}

func TestLangChain_Complete(t *testing.T) {
	model := &fakeModel{content: "```json\n{\"subtasks\": [\"movie\"]}\n```"}
	transcript := &memoryTranscript{}
	c := NewLangChain(model, "gemini-test", "Gemini")
	c.Transcript = transcript

	answer, err := c.Complete(context.Background(), Request{
		System:      "plan it",
		User:        "movie night",
		Schema:      plannerSchema,
		Temperature: 0.2,
	})
	require.NoError(t, err)

	assert.True(t, answer.Parsed())
	assert.Equal(t, []any{"movie"}, answer.JSON["subtasks"])
	assert.Empty(t, answer.Violations)
	assert.Equal(t, 0.2, model.opts.Temperature)
	assert.True(t, model.opts.JSONMode)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	system := model.messages[0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, system, "plan it")
	assert.Contains(t, system, `"subtasks"`)

	require.Len(t, transcript.exchanges, 1)
	assert.Equal(t, "gemini-test", transcript.exchanges[0].Model)
	assert.Equal(t, "movie night", transcript.exchanges[0].User)
}

func TestLangChain_CompleteRawEnvelope(t *testing.T) {
	c := NewLangChain(&fakeModel{content: "  Sunny with a chance of popcorn.  "}, "m", "Gemini")

	answer, err := c.Complete(context.Background(), Request{User: "weather"})
	require.NoError(t, err)

	assert.False(t, answer.Parsed())
	assert.Equal(t, map[string]any{"raw": "Sunny with a chance of popcorn."}, answer.Object())
}

func TestLangChain_CompleteErrors(t *testing.T) {
	c := NewLangChain(&fakeModel{content: "   "}, "m", "Gemini")
	_, err := c.Complete(context.Background(), Request{User: "x"})
	require.Error(t, err)
	assert.Equal(t, "Gemini agent request failed", err.Error())
	assert.Equal(t, outing.CodeUpstreamCompletion, outing.CodeOf(err))

	cause := errors.New("quota exceeded")
	c = NewLangChain(&fakeModel{err: cause}, "m", "Gemini")
	_, err = c.Complete(context.Background(), Request{User: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestParse(t *testing.T) {
	answer := Parse(`{"subtasks": "movie"}`, plannerSchema)
	assert.True(t, answer.Parsed())
	assert.NotEmpty(t, answer.Violations)

	answer = Parse(`["movie"]`, nil)
	assert.False(t, answer.Parsed())
	assert.Equal(t, `["movie"]`, answer.Raw)

	answer = Parse("```\n{\"a\": 1}\n```", nil)
	assert.Equal(t, map[string]any{"a": 1.0}, answer.JSON)
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "Gemini", SourceLabel("gemini"))
	assert.Equal(t, "OpenAI", SourceLabel("openai"))
	assert.Equal(t, "local", SourceLabel("local"))
}

func TestText(t *testing.T) {
	c := Text("Gemini", `{"summary": "ok"}`)
	answer, err := c.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", answer.JSON["summary"])
	assert.Equal(t, "Gemini", c.Label())
}
