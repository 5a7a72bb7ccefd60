package llm

import "context"

// Message is one wire-format chat message sent to the completion endpoint.
type Message struct {
	Role         string        `json:"role"`
	Content      string        `json:"content"`
	Name         string        `json:"name,omitempty"`         // set on function-role messages
	FunctionCall *FunctionCall `json:"functionCall,omitempty"` // set on assistant messages requesting a call
}

// FunctionCall is a model request to invoke a registered function.
// Arguments is the raw JSON the model produced; parsing is the caller's job.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// CompletionRequest describes one "get next completion" call. Temperature
// overrides the configured default when set; nil keeps it, so a zero
// override stays distinguishable from unset.
type CompletionRequest struct {
	Messages    []*Message               `json:"messages"`
	Functions   []map[string]interface{} `json:"functions,omitempty"`
	Temperature *float64                 `json:"temperature,omitempty"`
	MaxTokens   int                      `json:"maxOutputTokens,omitempty"`
}

// Float64 returns a pointer to v, for optional request fields.
func Float64(v float64) *float64 { return &v }

// Usage carries token accounting reported by the endpoint.
type Usage struct {
	TotalTokens      int `json:"totalTokens"`
	PromptTokens     int `json:"promptTokens,omitempty"`
	CompletionTokens int `json:"completionTokens,omitempty"`
}

// CompletionResponse is the model's choice: final text or a function-call request.
type CompletionResponse struct {
	Content      string        `json:"content"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
	FinishReason string        `json:"finishReason"`
	Usage        *Usage        `json:"usage,omitempty"`
	Model        string        `json:"model,omitempty"`
}

// Client is the interface for completion clients.
type Client interface {
	// Complete sends a completion request and returns the model's choice.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	// ModelName returns the configured model identifier.
	ModelName() string
}
