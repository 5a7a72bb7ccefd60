package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funcall-ai/funcall/internal/functions"
	"github.com/funcall-ai/funcall/internal/llm"
)

// TestChainedFunctionCalls walks a realistic two-step turn: the model first
// resolves a location, then asks for the weather there, then answers.
func TestChainedFunctionCalls(t *testing.T) {
	r := functions.NewRegistry()
	err := r.Register("resolve_city", &functions.Schema{
		Name:        "resolve_city",
		Description: "Resolve a city name",
		Parameters: &functions.ParameterSpec{
			Type:       "object",
			Properties: map[string]*functions.Property{"query": {Type: "string"}},
			Required:   []string{"query"},
		},
	}, func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{"city": "Oslo", "country": "NO"}, nil
	})
	require.NoError(t, err)
	err = r.Register("get_temperature", &functions.Schema{
		Name:        "get_temperature",
		Description: "Get the temperature for a city",
		Parameters: &functions.ParameterSpec{
			Type:       "object",
			Properties: map[string]*functions.Property{"city": {Type: "string"}},
			Required:   []string{"city"},
		},
	}, func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return 18.5, nil
	})
	require.NoError(t, err)

	client := &scriptedClient{steps: []scriptStep{
		callStep("resolve_city", `{"query":"the Norwegian capital"}`),
		callStep("get_temperature", `{"city":"Oslo"}`),
		textStep("It is 18.5 degrees in Oslo."),
	}}
	o := New(client, r, "You answer weather questions.")

	res := o.ProcessMessage(context.Background(), "How warm is it in the Norwegian capital?", ProcessOptions{})
	require.True(t, res.Success, "turn failed: %+v", res.Error)
	assert.Equal(t, "It is 18.5 degrees in Oslo.", res.Message)
	assert.Equal(t, []string{"resolve_city", "get_temperature"}, res.FunctionCalls)
	require.NotNil(t, res.Usage)
	assert.Equal(t, 30, res.Usage.TotalTokens)

	msgs := o.Export(true).Messages
	require.Len(t, msgs, 7)
	roles := make([]string, len(msgs))
	for i, m := range msgs {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{"system", "user", "assistant", "function", "assistant", "function", "assistant"}, roles)

	// The primitive result reads naturally, not as JSON.
	assert.Equal(t, "18.5", msgs[5].Content)
}

// TestTokenBudgetTrimsBeforeEachCompletion fills the transcript past the
// budget and checks the request the client actually receives.
func TestTokenBudgetTrimsBeforeEachCompletion(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{textStep("a"), textStep("b")}}
	o := New(client, functions.NewRegistry(), "sys")

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	res := o.ProcessMessage(context.Background(), string(long), ProcessOptions{})
	require.True(t, res.Success)

	// Budget 130: system (11) + one 400-char message (110) fits, nothing more.
	res = o.ProcessMessage(context.Background(), string(long), ProcessOptions{TokenBudget: 130})
	require.True(t, res.Success)

	sent := client.requests[1].Messages
	require.Len(t, sent, 2)
	assert.Equal(t, "system", sent[0].Role)
	assert.Equal(t, string(long), sent[1].Content)
}

// TestResultEnvelopeJSONShape pins the wire shape callers serialize.
func TestResultEnvelopeJSONShape(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{err: &llm.APIError{Kind: llm.KindRateLimit, StatusCode: 429, Message: "slow down"}},
	}}
	o := New(client, functions.NewRegistry(), "sys")

	res := o.ProcessMessage(context.Background(), "hi", ProcessOptions{})
	require.False(t, res.Success)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	errObj, ok := decoded["error"].(map[string]interface{})
	require.True(t, ok, "error field missing: %s", data)
	assert.Equal(t, string(KindProcessing), errObj["kind"])
	assert.NotContains(t, decoded, "message")
}
