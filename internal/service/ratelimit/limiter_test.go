package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_DrainsAndRefills(t *testing.T) {
	l := New()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("private", 2, 1))
	assert.True(t, l.Allow("private", 2, 1))
	assert.False(t, l.Allow("private", 2, 1))
	assert.True(t, l.Allow("public", 2, 1), "keys have separate buckets")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("private", 2, 1))
	assert.False(t, l.Allow("private", 2, 1))
}

func TestWait_ReturnsWhenContextEnds(t *testing.T) {
	l := New()
	assert.True(t, l.Allow("k", 1, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx, "k", 1, 0), context.DeadlineExceeded)
}

func TestWait_BlocksUntilRefill(t *testing.T) {
	l := New()
	assert.NoError(t, l.Wait(context.Background(), "k", 1, 100))

	start := time.Now()
	assert.NoError(t, l.Wait(context.Background(), "k", 1, 100))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}
