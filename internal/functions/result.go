package functions

// ErrorKind tags every failure the registry can produce.
type ErrorKind string

const (
	// Registration failures
	KindSchema  ErrorKind = "SchemaError"
	KindHandler ErrorKind = "HandlerError"

	// Execution failures
	KindNotFound   ErrorKind = "NotFound"
	KindValidation ErrorKind = "ValidationError"
	KindTimeout    ErrorKind = "TimeoutError"
	KindExecution  ErrorKind = "ExecutionError"
	KindUnexpected ErrorKind = "UnexpectedError"
)

// ExecError is the structured failure half of an ExecutionResult.
type ExecError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ExecutionResult is the uniform outcome of one function invocation.
// It never holds live handles: results are plain data once returned.
type ExecutionResult struct {
	Success         bool        `json:"success"`
	Result          interface{} `json:"result,omitempty"`
	Error           *ExecError  `json:"error,omitempty"`
	ExecutionTimeMs int64       `json:"executionTimeMs"`
	TimeoutMs       int64       `json:"timeoutMs"`
}

func failure(kind ErrorKind, message string, elapsedMs, timeoutMs int64) *ExecutionResult {
	return &ExecutionResult{
		Error:           &ExecError{Kind: kind, Message: message},
		ExecutionTimeMs: elapsedMs,
		TimeoutMs:       timeoutMs,
	}
}

// RegistrationError reports a rejected Register call.
type RegistrationError struct {
	Kind    ErrorKind
	Message string
}

func (e *RegistrationError) Error() string {
	return string(e.Kind) + ": " + e.Message
}
