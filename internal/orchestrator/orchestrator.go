// Package orchestrator drives the conversation loop: it appends user input to
// the transcript, calls the completion client, and runs the multi-round
// function-call protocol until the model produces a final text answer.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/funcall-ai/funcall/internal/consts"
	"github.com/funcall-ai/funcall/internal/conversation"
	"github.com/funcall-ai/funcall/internal/functions"
	"github.com/funcall-ai/funcall/internal/llm"
	"github.com/funcall-ai/funcall/internal/logger"
)

// ErrorKind classifies a failed turn for the caller.
type ErrorKind string

const (
	KindInvalidInput         ErrorKind = "InvalidInput"
	KindInvalidRole          ErrorKind = "InvalidRole"
	KindInvalidContent       ErrorKind = "InvalidContent"
	KindProcessing           ErrorKind = "ProcessingError"
	KindFunctionExecution    ErrorKind = "FunctionExecutionError"
	KindTooManyFunctionCalls ErrorKind = "TooManyFunctionCalls"
)

// classifyAppendErr maps transcript validation errors onto envelope kinds.
func classifyAppendErr(err error) ErrorKind {
	switch {
	case errors.Is(err, conversation.ErrInvalidRole):
		return KindInvalidRole
	case errors.Is(err, conversation.ErrInvalidContent):
		return KindInvalidContent
	default:
		return KindProcessing
	}
}

// ResultError describes why a turn failed.
type ResultError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Result is the envelope every turn returns. Internal faults never escape as
// Go errors; they are converted into a failed envelope.
type Result struct {
	Success       bool         `json:"success"`
	Message       string       `json:"message,omitempty"`
	Usage         *llm.Usage   `json:"usage,omitempty"`
	FinishReason  string       `json:"finishReason,omitempty"`
	FunctionCalls []string     `json:"functionCalls,omitempty"`
	Error         *ResultError `json:"error,omitempty"`
}

// ProcessOptions tunes one turn. Zero values mean: full history, no token
// trimming, default function timeout and round cap.
type ProcessOptions struct {
	ExcludeHistory    bool
	TokenBudget       int
	FunctionTimeout   time.Duration
	MaxFunctionRounds int
}

// Orchestrator serializes turns on one conversation. The mutex covers the
// whole turn so concurrent ProcessMessage calls cannot interleave transcript
// writes.
type Orchestrator struct {
	mu       sync.Mutex
	conv     *conversation.Conversation
	client   llm.Client
	registry *functions.Registry
	log      *logger.Logger
}

// New builds an orchestrator over a fresh conversation.
func New(client llm.Client, registry *functions.Registry, systemPrompt string) *Orchestrator {
	return &Orchestrator{
		conv:     conversation.New(systemPrompt),
		client:   client,
		registry: registry,
		log:      logger.Global().WithPrefix("orchestrator"),
	}
}

// ConversationID returns the active conversation's identifier.
func (o *Orchestrator) ConversationID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.ID()
}

// StartConversation discards the current transcript and starts a new one.
// An empty prompt carries the current system prompt over. Returns the new
// conversation ID.
func (o *Orchestrator) StartConversation(systemPrompt string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if systemPrompt == "" {
		systemPrompt = o.conv.SystemPrompt()
	}
	o.conv = conversation.New(systemPrompt)
	o.log.Info("started conversation %s", o.conv.ID())
	return o.conv.ID()
}

// ClearHistory resets the transcript back to the system message.
func (o *Orchestrator) ClearHistory() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conv.Clear()
}

// Stats returns a snapshot of the transcript.
func (o *Orchestrator) Stats() conversation.Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.Stats()
}

// Export returns an ordered transcript copy tagged with the active model.
func (o *Orchestrator) Export(includeSystem bool) *conversation.Export {
	o.mu.Lock()
	defer o.mu.Unlock()
	exp := o.conv.ExportState(includeSystem)
	if o.client != nil {
		exp.Model = o.client.ModelName()
	}
	return exp
}

// AddMessage appends a transcript entry outside a model turn; callers use it
// to seed context. Returns the envelope rather than a raw error so role and
// content violations classify the same way ProcessMessage failures do.
func (o *Orchestrator) AddMessage(role, content string, opts conversation.AppendOptions) *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.conv.Append(role, content, opts); err != nil {
		return failure(classifyAppendErr(err), err.Error())
	}
	return &Result{Success: true}
}

// ProcessMessage runs one user turn to completion. Blank input fails without
// touching the transcript; any later fault is recorded as an assistant
// message and reported in the envelope rather than returned as an error.
func (o *Orchestrator) ProcessMessage(ctx context.Context, input string, opts ProcessOptions) *Result {
	if strings.TrimSpace(input) == "" {
		return failure(KindInvalidInput, "input must not be empty")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.conv.Append(conversation.RoleUser, input, conversation.AppendOptions{}); err != nil {
		return failure(classifyAppendErr(err), err.Error())
	}

	maxRounds := opts.MaxFunctionRounds
	if maxRounds <= 0 {
		maxRounds = consts.MaxFunctionRounds
	}
	funcTimeout := opts.FunctionTimeout
	if funcTimeout <= 0 {
		funcTimeout = consts.OrchestratorExecutionTimeout
	}

	usage := &llm.Usage{}
	var calls []string

	for round := 0; ; round++ {
		resp, err := o.complete(ctx, opts)
		if err != nil {
			return o.recordFailure(KindProcessing, fmt.Sprintf("completion failed: %v", err), usage, calls)
		}
		accumulateUsage(usage, resp.Usage)

		if resp.FunctionCall == nil {
			if err := o.conv.Append(conversation.RoleAssistant, resp.Content, conversation.AppendOptions{}); err != nil {
				return o.recordFailure(classifyAppendErr(err), fmt.Sprintf("model returned an empty response: %v", err), usage, calls)
			}
			return &Result{
				Success:       true,
				Message:       resp.Content,
				Usage:         usage,
				FinishReason:  resp.FinishReason,
				FunctionCalls: calls,
			}
		}

		fc := resp.FunctionCall
		calls = append(calls, fc.Name)
		o.log.Debug("round %d: model requested function %s", round, fc.Name)

		// Echo the request into the transcript before executing, so the
		// model sees its own call on the next completion.
		echo := conversation.AppendOptions{FunctionCall: fc}
		if err := o.conv.Append(conversation.RoleAssistant, resp.Content, echo); err != nil {
			return o.recordFailure(KindProcessing, fmt.Sprintf("recording function call: %v", err), usage, calls)
		}

		if len(calls) > maxRounds {
			msg := fmt.Sprintf("stopped after %d function calls without a final answer", maxRounds)
			return o.recordFailure(KindTooManyFunctionCalls, msg, usage, calls)
		}

		content, fault := o.runFunction(ctx, fc, funcTimeout)
		if err := o.conv.Append(conversation.RoleFunction, content, conversation.AppendOptions{Name: fc.Name}); err != nil {
			return o.recordFailure(KindProcessing, fmt.Sprintf("recording function result: %v", err), usage, calls)
		}
		if fault {
			// The failure is already in the transcript; one more completion
			// lets the model answer over it. The turn only fails if that
			// completion fails too.
			resp, err := o.complete(ctx, opts)
			if err == nil {
				accumulateUsage(usage, resp.Usage)
				if resp.FunctionCall == nil && resp.Content != "" {
					if appendErr := o.conv.Append(conversation.RoleAssistant, resp.Content, conversation.AppendOptions{}); appendErr == nil {
						return &Result{
							Success:       true,
							Message:       resp.Content,
							Usage:         usage,
							FinishReason:  resp.FinishReason,
							FunctionCalls: calls,
						}
					}
				}
			}
			res := failure(KindFunctionExecution, fmt.Sprintf("function %s could not be executed", fc.Name))
			res.Usage = usage
			res.FunctionCalls = calls
			return res
		}
	}
}

// complete assembles the current transcript into a request and calls the
// client. Token trimming happens here so every round honors the budget.
func (o *Orchestrator) complete(ctx context.Context, opts ProcessOptions) (*llm.CompletionResponse, error) {
	if opts.TokenBudget > 0 {
		o.conv.TrimToTokenLimit(opts.TokenBudget)
	}
	req := &llm.CompletionRequest{
		Messages: o.conv.WireMessages(!opts.ExcludeHistory),
	}
	if o.registry != nil && o.registry.Len() > 0 {
		req.Functions = o.registry.WireSchemas()
	}
	return o.client.Complete(ctx, req)
}

// runFunction parses the model-supplied arguments and executes the call.
// It always returns transcript content; fault is true only for faults inside
// the orchestrator itself, not for ordinary execution failures.
func (o *Orchestrator) runFunction(ctx context.Context, fc *llm.FunctionCall, timeout time.Duration) (content string, fault bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("panic running %s: %v", fc.Name, r)
			content = fmt.Sprintf("Function execution failed [%s]: internal error", functions.KindUnexpected)
			fault = true
		}
	}()

	if o.registry == nil {
		return fmt.Sprintf("Function execution failed [%s]: no function registry configured", functions.KindUnexpected), true
	}

	args, err := parseArguments(fc.Arguments)
	if err != nil {
		// Malformed arguments are the model's fault; report them back so it
		// can retry with a corrected call.
		return fmt.Sprintf("Function execution failed [%s]: %v", functions.KindValidation, err), false
	}

	res := o.registry.ExecuteSafely(ctx, fc.Name, args, functions.SafeOptions{Timeout: timeout})
	return formatResult(res), false
}

// parseArguments decodes the raw argument JSON. An empty string is a legal
// zero-argument call.
func parseArguments(raw string) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %v", err)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}

// formatResult renders an execution result as transcript content: primitives
// read naturally, composites as indented JSON, failures in a fixed shape the
// model can recognize.
func formatResult(res *functions.ExecutionResult) string {
	if !res.Success {
		return fmt.Sprintf("Function execution failed [%s]: %s", res.Error.Kind, res.Error.Message)
	}
	switch v := res.Result.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool, int, int64, float32, float64, json.Number:
		return fmt.Sprintf("%v", v)
	default:
		if data, err := json.MarshalIndent(v, "", "  "); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}

// recordFailure writes the failure into the transcript as an assistant
// message and builds the envelope.
func (o *Orchestrator) recordFailure(kind ErrorKind, msg string, usage *llm.Usage, calls []string) *Result {
	o.log.Warn("turn failed [%s]: %s", kind, msg)
	_ = o.conv.Append(conversation.RoleAssistant, fmt.Sprintf("[error] %s", msg), conversation.AppendOptions{})
	res := failure(kind, msg)
	res.Usage = usage
	res.FunctionCalls = calls
	return res
}

func failure(kind ErrorKind, msg string) *Result {
	return &Result{Success: false, Error: &ResultError{Kind: kind, Message: msg}}
}

func accumulateUsage(total *llm.Usage, add *llm.Usage) {
	if add == nil {
		return
	}
	total.TotalTokens += add.TotalTokens
	total.PromptTokens += add.PromptTokens
	total.CompletionTokens += add.CompletionTokens
}
