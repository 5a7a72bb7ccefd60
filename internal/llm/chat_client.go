package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/funcall-ai/funcall/internal/consts"
	"github.com/funcall-ai/funcall/internal/logger"
)

// ChatClientConfig configures a ChatClient. Sampling parameters are validated
// once at construction, never per call.
type ChatClientConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int

	// HTTPClient overrides the default transport; used by tests.
	HTTPClient *http.Client
}

// ChatClient talks to an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// NewChatClient constructs a validated completion client.
func NewChatClient(cfg ChatClientConfig) (*ChatClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("chat client requires an API key")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("chat client requires a model identifier")
	}
	if cfg.Temperature < consts.MinTemperature || cfg.Temperature > consts.MaxTemperature {
		return nil, fmt.Errorf("temperature %.2f outside [%.0f, %.0f]",
			cfg.Temperature, consts.MinTemperature, consts.MaxTemperature)
	}
	if cfg.MaxTokens < consts.MinMaxTokens || cfg.MaxTokens > consts.MaxMaxTokens {
		return nil, fmt.Errorf("max output tokens %d outside [%d, %d]",
			cfg.MaxTokens, consts.MinMaxTokens, consts.MaxMaxTokens)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("chat client requires a base URL")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: consts.CompletionHTTPTimeout}
	}

	return &ChatClient{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     baseURL,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  httpClient,
	}, nil
}

func (c *ChatClient) ModelName() string {
	return c.model
}

// Complete sends one completion request over the supplied transcript.
func (c *ChatClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("completion request cannot be nil")
	}
	if err := validateTranscript(req.Messages); err != nil {
		return nil, err
	}

	payload := c.buildPayload(req)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("completion failed to encode payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("completion failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	logger.Debug("completion request: model=%s messages=%d prompt_tokens~%d",
		c.model, len(req.Messages), EstimateTokens(promptText(req.Messages)))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		apiErr := ClassifyStatus(resp.StatusCode, strings.TrimSpace(string(raw)))
		logger.Warn("Completion request failed: %v", apiErr)
		return nil, apiErr
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("completion failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message == nil {
		return &CompletionResponse{FinishReason: "stop", Model: chatResp.Model}, nil
	}

	first := chatResp.Choices[0]
	finishReason := strings.TrimSpace(first.FinishReason)
	if finishReason == "" {
		finishReason = "stop"
	}

	return &CompletionResponse{
		Content:      first.Message.Content,
		FunctionCall: first.Message.FunctionCall,
		FinishReason: finishReason,
		Usage:        chatResp.Usage,
		Model:        chatResp.Model,
	}, nil
}

func (c *ChatClient) buildPayload(req *CompletionRequest) *chatRequest {
	payload := &chatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if req.Temperature != nil {
		payload.Temperature = *req.Temperature
	}
	if req.MaxTokens > 0 {
		payload.MaxTokens = req.MaxTokens
	}
	if len(req.Functions) > 0 {
		payload.Functions = req.Functions
		payload.FunctionCallMode = "auto"
	}
	return payload
}

// promptText flattens the transcript contents for token accounting.
func promptText(messages []*Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m == nil {
			continue
		}
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// validateTranscript enforces the wire contract: non-empty, every entry has a
// role, and content may be empty only on assistant messages that carry a
// function-call request.
func validateTranscript(messages []*Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("completion requires at least one message")
	}
	for i, msg := range messages {
		if msg == nil {
			return fmt.Errorf("message %d is nil", i)
		}
		if strings.TrimSpace(msg.Role) == "" {
			return fmt.Errorf("message %d has no role", i)
		}
		if msg.Content == "" && !(msg.Role == "assistant" && msg.FunctionCall != nil) {
			return fmt.Errorf("message %d (%s) has empty content", i, msg.Role)
		}
	}
	return nil
}

type chatRequest struct {
	Model            string                   `json:"model"`
	Messages         []*Message               `json:"messages"`
	Temperature      float64                  `json:"temperature"`
	MaxTokens        int                      `json:"maxOutputTokens,omitempty"`
	Functions        []map[string]interface{} `json:"functions,omitempty"`
	FunctionCallMode string                   `json:"functionCallMode,omitempty"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
	Model   string       `json:"model,omitempty"`
}

type chatChoice struct {
	Index        int                `json:"index"`
	Message      *chatChoiceMessage `json:"message"`
	FinishReason string             `json:"finishReason"`
}

type chatChoiceMessage struct {
	Role         string        `json:"role"`
	Content      string        `json:"content"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}
