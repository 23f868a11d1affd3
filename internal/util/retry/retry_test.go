package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast() []Option {
	return []Option{WithInitialDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond)}
}

func TestWithExponentialBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		failures     int
		maxRetries   int
		wantErr      bool
		wantAttempts int
	}{
		{name: "first try", failures: 0, maxRetries: 3, wantAttempts: 1},
		{name: "after retries", failures: 2, maxRetries: 3, wantAttempts: 3},
		{name: "exhausted", failures: 10, maxRetries: 2, wantErr: true, wantAttempts: 3},
		{name: "no retries", failures: 1, maxRetries: 0, wantErr: true, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			attempts := 0
			err := WithExponentialBackoff(context.Background(), func() error {
				attempts++
				if attempts <= tt.failures {
					return errors.New("temporary")
				}
				return nil
			}, append(fast(), WithMaxRetries(tt.maxRetries))...)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "temporary")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestWithExponentialBackoff_FatalStops(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("unauthorized")
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return Fatal(sentinel)
	}, fast()...)

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, sentinel)
}

func TestWithExponentialBackoff_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := WithExponentialBackoff(ctx, func() error {
		attempts++
		cancel()
		return errors.New("temporary")
	}, WithInitialDelay(time.Second))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestFatal(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Fatal(nil))

	base := errors.New("base")
	err := Fatal(base)
	assert.True(t, IsFatal(err))
	assert.Equal(t, "base", err.Error())
	assert.Same(t, base, errors.Unwrap(err))

	wrapped := fmt.Errorf("context: %w", err)
	assert.True(t, IsFatal(wrapped))
	assert.ErrorIs(t, wrapped, base)

	assert.False(t, IsFatal(errors.New("plain")))
}
