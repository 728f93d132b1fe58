package middlewarectx

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start

	l := NewRateLimiter(0.001, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.now = func() time.Time { return now }
	l.lastSweep = start

	require.True(t, l.limiter("10.0.0.1").Allow())
	require.False(t, l.limiter("10.0.0.1").Allow(), "budget is spent")
	for i := range 100 {
		l.limiter(fmt.Sprintf("scanner-%d", i))
	}
	assert.Equal(t, 101, l.Len())

	// Активный клиент продолжает слать запросы и не вытесняется.
	now = start.Add(idleTTL - time.Minute)
	assert.False(t, l.limiter("10.0.0.1").Allow())

	now = start.Add(idleTTL)
	l.limiter("10.0.0.2")
	assert.Equal(t, 2, l.Len(), "only the active client and the newcomer remain")
	assert.False(t, l.limiter("10.0.0.1").Allow(), "an active client keeps its spent bucket")

	now = now.Add(2 * idleTTL)
	l.limiter("10.0.0.3")
	assert.Equal(t, 1, l.Len())
	assert.True(t, l.limiter("10.0.0.3").Allow())
}

func TestRateLimiter_NoSweepBeforeTTL(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start

	l := NewRateLimiter(1, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.now = func() time.Time { return now }
	l.lastSweep = start

	l.limiter("a")
	now = start.Add(idleTTL / 2)
	l.limiter("b")
	assert.Equal(t, 2, l.Len())
}
