// Package resilience groups the transient-failure handling the Hub wraps
// around every external call: bounded exponential-backoff retries (retry)
// and sustained-failure circuit breaking (circuitbreaker). The two
// compose: the breaker sits inside the retry loop, so a tripped circuit
// surfaces as a non-retryable refusal rather than three slow timeouts.
//
// Example:
//
//	cb := circuitbreaker.New(circuitbreaker.ClaudeAPIConfig())
//	err := retry.WithBackoff(ctx, retry.AIAPIConfig(), func() error {
//	    _, err := cb.Execute(callBackend)
//	    return err
//	})
package resilience
