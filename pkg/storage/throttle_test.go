package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter(t *testing.T) {
	t.Run("Unlimited", func(t *testing.T) {
		assert.Nil(t, NewLimiter(0))
		assert.Nil(t, NewLimiter(-100))
		assert.Equal(t, int64(0), NewLimiter(0).BytesPerSecond())
	})

	t.Run("MinimumBucket", func(t *testing.T) {
		l := NewLimiter(1000)
		require.NotNil(t, l)
		assert.Equal(t, int64(65536), l.bucketSize)
		assert.Equal(t, int64(1000), l.BytesPerSecond())
	})
}

func TestLimiterWait(t *testing.T) {
	t.Run("NilNeverBlocks", func(t *testing.T) {
		var l *Limiter
		assert.NoError(t, l.Wait(context.Background(), 1<<30))
	})

	t.Run("BurstAvailable", func(t *testing.T) {
		l := NewLimiter(1 << 20)
		start := time.Now()
		require.NoError(t, l.Wait(context.Background(), 1<<20))
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("CancelledWhileWaiting", func(t *testing.T) {
		l := NewLimiter(1000)
		require.NoError(t, l.Wait(context.Background(), 65536))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := l.Wait(ctx, 65536)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestThrottleReader(t *testing.T) {
	ctx := context.Background()
	src := strings.Repeat("x", 100000)

	assert.Equal(t, strings.NewReader(src), ThrottleReader(ctx, strings.NewReader(src), nil))

	var out bytes.Buffer
	_, err := io.Copy(&out, ThrottleReader(ctx, strings.NewReader(src), NewLimiter(10<<20)))
	require.NoError(t, err)
	assert.Equal(t, src, out.String())
}
