package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

func testClientConfig(httpClient *http.Client) ChatClientConfig {
	return ChatClientConfig{
		APIKey:      "test-key",
		Model:       "test-model",
		BaseURL:     "https://api.example.com/v1",
		Temperature: 0.7,
		MaxTokens:   512,
		HTTPClient:  httpClient,
	}
}

func TestNewChatClientValidatesConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ChatClientConfig)
	}{
		{"missing api key", func(c *ChatClientConfig) { c.APIKey = " " }},
		{"missing model", func(c *ChatClientConfig) { c.Model = "" }},
		{"temperature too low", func(c *ChatClientConfig) { c.Temperature = -0.1 }},
		{"temperature too high", func(c *ChatClientConfig) { c.Temperature = 2.5 }},
		{"max tokens zero", func(c *ChatClientConfig) { c.MaxTokens = 0 }},
		{"max tokens too high", func(c *ChatClientConfig) { c.MaxTokens = 5000 }},
		{"missing base url", func(c *ChatClientConfig) { c.BaseURL = "" }},
	}

	for _, tc := range cases {
		cfg := testClientConfig(nil)
		tc.mutate(&cfg)
		if _, err := NewChatClient(cfg); err == nil {
			t.Errorf("%s: expected construction error", tc.name)
		}
	}

	if _, err := NewChatClient(testClientConfig(nil)); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestCompleteSendsWirePayload(t *testing.T) {
	var captured chatRequest
	httpClient := newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decoding request payload: %v", err)
		}
		return newTestHTTPResponse(req, http.StatusOK,
			`{"choices":[{"message":{"content":"hello"},"finishReason":"stop"}],"usage":{"totalTokens":12},"model":"test-model"}`), nil
	})

	client, err := NewChatClient(testClientConfig(httpClient))
	if err != nil {
		t.Fatalf("NewChatClient: %v", err)
	}

	resp, err := client.Complete(context.Background(), &CompletionRequest{
		Messages: []*Message{
			{Role: "system", Content: "be helpful"},
			{Role: "user", Content: "hi"},
		},
		Functions: []map[string]interface{}{
			{"type": "function", "function": map[string]interface{}{"name": "noop"}},
		},
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	if captured.Model != "test-model" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.Temperature != 0.7 {
		t.Errorf("temperature = %v, want configured 0.7", captured.Temperature)
	}
	if captured.MaxTokens != 512 {
		t.Errorf("maxOutputTokens = %d, want 512", captured.MaxTokens)
	}
	if captured.FunctionCallMode != "auto" {
		t.Errorf("functionCallMode = %q, want auto", captured.FunctionCallMode)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("messages not forwarded: %+v", captured.Messages)
	}

	if resp.Content != "hello" || resp.FinishReason != "stop" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 12 {
		t.Errorf("usage not decoded: %+v", resp.Usage)
	}
}

func TestCompleteTemperatureOverride(t *testing.T) {
	var captured chatRequest
	httpClient := newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decoding request payload: %v", err)
		}
		return newTestHTTPResponse(req, http.StatusOK,
			`{"choices":[{"message":{"content":"ok"},"finishReason":"stop"}]}`), nil
	})

	client, err := NewChatClient(testClientConfig(httpClient))
	if err != nil {
		t.Fatalf("NewChatClient: %v", err)
	}

	// A zero override is a real override, not "use the default".
	_, err = client.Complete(context.Background(), &CompletionRequest{
		Messages:    []*Message{{Role: "user", Content: "hi"}},
		Temperature: Float64(0),
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if captured.Temperature != 0 {
		t.Errorf("temperature = %v, want explicit 0", captured.Temperature)
	}

	// Unset keeps the configured default.
	_, err = client.Complete(context.Background(), &CompletionRequest{
		Messages: []*Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if captured.Temperature != 0.7 {
		t.Errorf("temperature = %v, want configured 0.7", captured.Temperature)
	}
}

func TestCompleteDecodesFunctionCall(t *testing.T) {
	httpClient := newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		return newTestHTTPResponse(req, http.StatusOK,
			`{"choices":[{"message":{"content":"","functionCall":{"name":"get_current_time","arguments":"{\"timezone\":\"UTC\"}"}},"finishReason":"function_call"}]}`), nil
	})

	client, err := NewChatClient(testClientConfig(httpClient))
	if err != nil {
		t.Fatalf("NewChatClient: %v", err)
	}

	resp, err := client.Complete(context.Background(), &CompletionRequest{
		Messages: []*Message{{Role: "user", Content: "what time is it?"}},
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if resp.FunctionCall == nil || resp.FunctionCall.Name != "get_current_time" {
		t.Fatalf("function call not decoded: %+v", resp)
	}
	if resp.FunctionCall.Arguments != `{"timezone":"UTC"}` {
		t.Errorf("arguments = %q", resp.FunctionCall.Arguments)
	}
}

func TestCompleteClassifiesStatusErrors(t *testing.T) {
	httpClient := newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		return newTestHTTPResponse(req, http.StatusTooManyRequests, `{"error":"rate limited"}`), nil
	})

	client, err := NewChatClient(testClientConfig(httpClient))
	if err != nil {
		t.Fatalf("NewChatClient: %v", err)
	}

	_, err = client.Complete(context.Background(), &CompletionRequest{
		Messages: []*Message{{Role: "user", Content: "hi"}},
	})
	if KindOf(err) != KindRateLimit {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
}

func TestCompleteValidatesTranscript(t *testing.T) {
	client, err := NewChatClient(testClientConfig(newTestHTTPClient(
		func(req *http.Request) (*http.Response, error) {
			t.Fatal("request must not reach the transport")
			return nil, nil
		})))
	if err != nil {
		t.Fatalf("NewChatClient: %v", err)
	}

	cases := []struct {
		name     string
		messages []*Message
	}{
		{"empty transcript", nil},
		{"missing role", []*Message{{Content: "hi"}}},
		{"empty user content", []*Message{{Role: "user", Content: ""}}},
		{"empty assistant without call", []*Message{{Role: "assistant", Content: ""}}},
	}
	for _, tc := range cases {
		if _, err := client.Complete(context.Background(), &CompletionRequest{Messages: tc.messages}); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}

	// Assistant entries carrying a function call may have empty content.
	httpClient := newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		return newTestHTTPResponse(req, http.StatusOK,
			`{"choices":[{"message":{"content":"ok"},"finishReason":"stop"}]}`), nil
	})
	client, _ = NewChatClient(testClientConfig(httpClient))
	_, err = client.Complete(context.Background(), &CompletionRequest{
		Messages: []*Message{
			{Role: "user", Content: "time?"},
			{Role: "assistant", Content: "", FunctionCall: &FunctionCall{Name: "now", Arguments: "{}"}},
			{Role: "function", Name: "now", Content: "noon"},
		},
	})
	if err != nil {
		t.Fatalf("function-call round trip rejected: %v", err)
	}
}
