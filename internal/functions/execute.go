package functions

import (
	"context"
	"fmt"
	"time"

	"github.com/funcall-ai/funcall/internal/consts"
	"github.com/funcall-ai/funcall/internal/logger"
)

// SafeOptions tunes ExecuteSafely. A zero Timeout keeps the registry default;
// a nil Sanitize means sanitize.
type SafeOptions struct {
	Timeout  time.Duration
	Sanitize *bool
}

// Execute runs a registered function through three gates in order: existence,
// argument validation, then execution raced against the default timeout.
// All outcomes report through the uniform ExecutionResult shape; no error
// ever crosses the registry boundary.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) *ExecutionResult {
	return r.execute(ctx, name, args, consts.DefaultExecutionTimeout)
}

// ExecuteSafely wraps Execute with a caller-controlled timeout and result
// sanitization. It always returns; any internal fault degrades to an
// UnexpectedError result instead of propagating.
func (r *Registry) ExecuteSafely(ctx context.Context, name string, args map[string]interface{}, opts SafeOptions) (result *ExecutionResult) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = consts.DefaultExecutionTimeout
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("Function %s produced an internal fault: %v", name, p)
			result = failure(KindUnexpected, fmt.Sprintf("internal error: %v", p), 0, timeout.Milliseconds())
		}
	}()

	result = r.execute(ctx, name, args, timeout)
	if result.Success && (opts.Sanitize == nil || *opts.Sanitize) {
		result.Result = Sanitize(result.Result)
	}
	return result
}

func (r *Registry) execute(ctx context.Context, name string, args map[string]interface{}, timeout time.Duration) *ExecutionResult {
	timeoutMs := timeout.Milliseconds()

	rec, ok := r.lookup(name)
	if !ok {
		return failure(KindNotFound, "function not registered: "+name, 0, timeoutMs)
	}

	// Validation runs before the timeout race so a malformed call never
	// consumes execution budget.
	if err := validateArguments(rec.schema.Parameters, args); err != nil {
		return failure(KindValidation, err.Error(), 0, timeoutMs)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so an abandoned handler can still settle without blocking;
	// its late result is simply never read.
	done := make(chan settlement, 1)
	start := time.Now()

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- settlement{err: fmt.Errorf("handler panicked: %v", p)}
			}
		}()
		value, err := rec.handler(execCtx, args)
		done <- settlement{value: value, err: err}
	}()

	select {
	case s := <-done:
		elapsed := time.Since(start).Milliseconds()
		if s.err != nil {
			logger.Debug("Function %s failed after %dms: %v", name, elapsed, s.err)
			return failure(KindExecution, s.err.Error(), elapsed, timeoutMs)
		}
		return &ExecutionResult{
			Success:         true,
			Result:          s.value,
			ExecutionTimeMs: elapsed,
			TimeoutMs:       timeoutMs,
		}
	case <-execCtx.Done():
		elapsed := time.Since(start).Milliseconds()
		if execCtx.Err() == context.DeadlineExceeded {
			logger.Warn("Function %s timed out after %dms (budget %dms)", name, elapsed, timeoutMs)
			return failure(KindTimeout,
				fmt.Sprintf("execution exceeded %dms timeout", timeoutMs), elapsed, timeoutMs)
		}
		return failure(KindExecution, "execution cancelled: "+execCtx.Err().Error(), elapsed, timeoutMs)
	}
}

type settlement struct {
	value interface{}
	err   error
}
