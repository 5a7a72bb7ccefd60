package consts

import "time"

// LLM sampling defaults and bounds
const (
	// DefaultTemperature is the sampling temperature used when none is configured
	DefaultTemperature = 0.7
	// MinTemperature is the lowest accepted sampling temperature
	MinTemperature = 0.0
	// MaxTemperature is the highest accepted sampling temperature
	MaxTemperature = 2.0
	// DefaultMaxTokens is the default maximum tokens for completions
	DefaultMaxTokens = 1024
	// MinMaxTokens is the lowest accepted completion token limit
	MinMaxTokens = 1
	// MaxMaxTokens is the highest accepted completion token limit
	MaxMaxTokens = 4096
)

// DefaultSystemPrompt seeds a conversation when the caller supplies no prompt.
const DefaultSystemPrompt = "You are a helpful assistant with access to functions. Use them when they help answer the user."

// Conversation history limits
const (
	// MaxHistoryMessages is the transcript length at which count-based trimming kicks in
	MaxHistoryMessages = 20
	// PerMessageTokenOverhead is the fixed token overhead added per message when estimating
	PerMessageTokenOverhead = 10
	// MaxFunctionRounds caps function-call rounds within a single user turn
	MaxFunctionRounds = 5
)

// Function execution timeouts
const (
	// DefaultExecutionTimeout bounds a single handler invocation inside the registry
	DefaultExecutionTimeout = 5 * time.Second
	// OrchestratorExecutionTimeout is the timeout the orchestrator passes to ExecuteSafely
	OrchestratorExecutionTimeout = 10 * time.Second
)

// Retry limits for completion requests
const (
	// MaxCompletionRetries is the number of additional attempts after the first failure
	MaxCompletionRetries = 3
	// RetryBaseDelay is the base backoff unit; attempt n sleeps 2^n * RetryBaseDelay plus jitter
	RetryBaseDelay = 1 * time.Second
	// RetryMaxJitter bounds the random jitter added to each backoff delay
	RetryMaxJitter = 1 * time.Second
)

// HTTP timeouts
const (
	// CompletionHTTPTimeout bounds one completion round trip
	CompletionHTTPTimeout = 2 * time.Minute
)
