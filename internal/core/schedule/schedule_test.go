package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestUntil_SatisfiedAfterTicks(t *testing.T) {
	clock := NewFakeClock(epoch)
	s := New(clock)

	calls := 0
	ok, err := s.Until(context.Background(), Wait{Interval: time.Second, Timeout: time.Minute}, func(tk Tick) bool {
		calls++
		return tk.Elapsed >= 3*time.Second
	})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, calls, "evaluated at 0s, 1s, 2s, 3s")
	assert.Equal(t, epoch.Add(3*time.Second), clock.Now())
}

func TestUntil_Timeout(t *testing.T) {
	clock := NewFakeClock(epoch)
	s := New(clock)

	ok, err := s.Until(context.Background(), Wait{Interval: 500 * time.Millisecond, Timeout: 2 * time.Second}, func(Tick) bool {
		return false
	})

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, epoch.Add(2*time.Second), clock.Now())
}

func TestUntil_Wake(t *testing.T) {
	wake := make(chan struct{}, 1)
	wake <- struct{}{}

	// real clock with a long interval: only the wake can end this quickly
	s := New(nil)
	start := time.Now()
	ok, err := s.Until(context.Background(), Wait{Interval: time.Hour, Timeout: time.Hour, Wake: wake}, func(tk Tick) bool {
		return tk.Woken
	})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestUntil_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(nil)
	ok, err := s.Until(ctx, Wait{Interval: time.Hour}, func(Tick) bool { return false })
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleep(t *testing.T) {
	clock := NewFakeClock(epoch)
	s := New(clock)

	require.NoError(t, s.Sleep(context.Background(), 30*time.Second))
	assert.Equal(t, epoch.Add(30*time.Second), clock.Now())

	require.NoError(t, s.Sleep(context.Background(), 0))
	assert.Equal(t, epoch.Add(30*time.Second), clock.Now())
}

func TestUntil_CancelledWithFakeClock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	s := New(NewFakeClock(epoch))
	ok, err := s.Until(ctx, Wait{Interval: time.Second, Timeout: time.Hour}, func(Tick) bool {
		calls++
		return false
	})
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
