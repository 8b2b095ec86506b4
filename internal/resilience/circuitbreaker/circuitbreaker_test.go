package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Name:             "test",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
}

func TestExecute_Success(t *testing.T) {
	cb := New(testConfig())

	result, err := cb.Execute(func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestExecute_PropagatesError(t *testing.T) {
	cb := New(testConfig())
	boom := errors.New("backend down")

	_, err := cb.Execute(func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestTripsAfterFailureRatio(t *testing.T) {
	cb := New(testConfig())
	boom := errors.New("backend down")

	// MinRequests=2, threshold 0.5: two straight failures trip the circuit
	for i := 0; i < 2; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, boom })
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	// While open, calls are refused without invoking fn
	invoked := false
	_, err := cb.Execute(func() (interface{}, error) {
		invoked = true
		return nil, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, invoked)
}

func TestBelowMinRequestsDoesNotTrip(t *testing.T) {
	cfg := testConfig()
	cfg.MinRequests = 10
	cb := New(cfg)

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errors.New("x") })
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestRecoversThroughHalfOpen(t *testing.T) {
	cb := New(testConfig())
	boom := errors.New("backend down")

	for i := 0; i < 2; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, boom })
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	// After the open timeout the breaker probes and a success closes it
	time.Sleep(60 * time.Millisecond)
	_, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestName(t *testing.T) {
	assert.Equal(t, "claude-api", New(ClaudeAPIConfig()).Name())
	assert.Equal(t, "openai-api", New(OpenAIAPIConfig()).Name())
}
