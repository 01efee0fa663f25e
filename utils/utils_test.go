package utils

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Circuit Breaker Tests

func TestCircuitBreaker_NewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("test")

	assert.Equal(t, "test", cb.Name())
	assert.Equal(t, uint32(100), cb.maxRequests)
	assert.Equal(t, 60*time.Second, cb.interval)
	assert.Equal(t, 60*time.Second, cb.timeout)
	assert.Equal(t, 0.6, cb.failureRatio)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_Options(t *testing.T) {
	cb := NewCircuitBreaker("admin-api",
		WithMaxRequests(20),
		WithFailureRatio(0.5),
		WithTimeout(5*time.Second),
		WithFailureRatio(7), // out of range, ignored
	)

	assert.Equal(t, uint32(20), cb.maxRequests)
	assert.Equal(t, 0.5, cb.failureRatio)
	assert.Equal(t, 5*time.Second, cb.timeout)
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	expectedResult := "success"
	result, err := cb.Execute(ctx, func() (any, error) {
		return expectedResult, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, expectedResult, result)
	assert.Equal(t, StateClosed, cb.state)
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
	assert.Equal(t, uint32(0), cb.counts.TotalFailures)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	expectedError := errors.New("test error")
	result, err := cb.Execute(ctx, func() (any, error) {
		return nil, expectedError
	})

	assert.Error(t, err)
	assert.Equal(t, expectedError, err)
	assert.Nil(t, result)
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(0), cb.counts.TotalSuccesses)
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_CanceledContextIsNotCounted(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Execute(ctx, func() (any, error) {
		t.Fatal("should not run with a canceled context")
		return nil, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(0), cb.counts.Requests)
}

func TestCircuitBreaker_IsSuccessfulHook(t *testing.T) {
	clientErr := errors.New("400 bad request")
	cb := NewCircuitBreaker("test", WithMaxRequests(2), WithIsSuccessful(func(err error) bool {
		return err == nil || errors.Is(err, clientErr)
	}))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := cb.Execute(ctx, func() (any, error) {
			return nil, clientErr
		})
		assert.ErrorIs(t, err, clientErr)
	}

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_StateTransition_ClosedToOpen(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker("test", WithStateChange(func(name string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}))
	cb.maxRequests = 5 // Lower threshold for testing
	cb.failureRatio = 0.6

	ctx := context.Background()

	// Execute some successful requests first
	for i := 0; i < 2; i++ {
		_, err := cb.Execute(ctx, func() (any, error) {
			return "success", nil
		})
		assert.NoError(t, err)
	}

	// Execute failing requests to trigger circuit opening
	for i := 0; i < 4; i++ {
		_, err := cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("failure")
		})
		assert.Error(t, err)
	}

	// Circuit should now be open
	assert.Equal(t, StateOpen, cb.state)
	assert.Equal(t, []string{"closed->open"}, transitions)

	// Next request should be rejected without executing
	_, err := cb.Execute(ctx, func() (any, error) {
		t.Fatal("This should not be executed when circuit is open")
		return nil, nil
	})

	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestCircuitBreaker_StateTransition_OpenToHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.maxRequests = 5
	cb.failureRatio = 0.6
	cb.timeout = 100 * time.Millisecond // Short timeout for testing

	ctx := context.Background()

	// Force circuit to open
	for i := 0; i < 5; i++ {
		cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("failure")
		})
	}

	assert.Equal(t, StateOpen, cb.state)

	// Wait for timeout
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	// A successful probe closes the circuit
	_, err := cb.Execute(ctx, func() (any, error) {
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.state)
}

func TestCircuitBreaker_HalfOpenToOpen(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.maxRequests = 2
	cb.failureRatio = 0.5
	cb.timeout = 100 * time.Millisecond

	ctx := context.Background()

	// Force circuit to open
	for i := 0; i < 2; i++ {
		cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("failure")
		})
	}

	// Wait for timeout to transition to half-open
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	// A failing probe opens it again
	_, err := cb.Execute(ctx, func() (any, error) {
		return nil, errors.New("failure")
	})

	assert.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_TripsOnFailureRatio(t *testing.T) {
	// The last 2 of 5 admin API calls answer with a 5xx.
	cb := NewCircuitBreaker("admin-api", WithMaxRequests(5), WithFailureRatio(0.4))
	ctx := context.Background()
	upstream := errors.New("status 502")

	for i := 0; i < 5; i++ {
		fail := i >= 3
		_, _ = cb.Execute(ctx, func() (any, error) {
			if fail {
				return nil, upstream
			}
			return "ok", nil
		})
	}
	assert.Equal(t, StateOpen, cb.State())

	calm := NewCircuitBreaker("admin-api", WithMaxRequests(5), WithFailureRatio(0.6))
	for i := 0; i < 5; i++ {
		fail := i >= 3
		_, _ = calm.Execute(ctx, func() (any, error) {
			if fail {
				return nil, upstream
			}
			return "ok", nil
		})
	}
	assert.Equal(t, StateClosed, calm.State(), "2 failures in 5 stay under a 0.6 ratio")
}



func TestRedisHealthCheck_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetVal("PONG")

	err := RedisHealthCheck(context.Background(), db)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHealthCheck_Failure(t *testing.T) {
	db, mock := redismock.NewClientMock()

	expectedError := errors.New("connection failed")
	mock.ExpectPing().SetErr(expectedError)

	err := RedisHealthCheck(context.Background(), db)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis health check failed")
	assert.Contains(t, err.Error(), "connection failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Code Generation Tests

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := GenerateCode(8)
		require.NoError(t, err)
		assert.Len(t, code, 8)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeCharset, r), "unexpected character %q", r)
		}
		seen[code] = struct{}{}
	}

	// collisions in 100 draws from 32^8 would point at a broken generator
	assert.Len(t, seen, 100)

	_, err := GenerateCode(0)
	assert.Error(t, err)
}

// Logger Tests

func TestNewLogger(t *testing.T) {
	nop, err := NewLogger("production", "info", "")
	require.NoError(t, err)
	assert.NotNil(t, nop)

	path := filepath.Join(t.TempDir(), "admin.log")
	logger, err := NewLogger("development", "debug", path)
	require.NoError(t, err)
	logger.Info("hello")
	assert.NoError(t, logger.Sync())

	_, err = NewLogger("production", "loud", path)
	assert.Error(t, err)
}
