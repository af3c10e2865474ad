package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFailed = errors.New("failed")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func tripAfter(n uint32) func(Counts) bool {
	return func(c Counts) bool { return c.ConsecutiveFailures >= n }
}

func run(b *Breaker, results ...bool) {
	for _, ok := range results {
		_ = b.Execute(func() error {
			if ok {
				return nil
			}
			return errFailed
		})
	}
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		requests []bool
		want     State
	}{
		{name: "stays closed on successes", requests: []bool{true, true, true}, want: StateClosed},
		{name: "opens after consecutive failures", requests: []bool{false, false, false}, want: StateOpen},
		{name: "success resets the streak", requests: []bool{false, false, true, false, false}, want: StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			b := New("test", Settings{ReadyToTrip: tripAfter(3), Now: clock.Now})
			run(b, tt.requests...)
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	b := New("test", Settings{Interval: time.Minute})

	require.NoError(t, b.Execute(func() error { return nil }))
	counts := b.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)

	assert.ErrorIs(t, b.Execute(func() error { return errFailed }), errFailed)
	counts = b.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	clock := newClock()
	b := New("test", Settings{Interval: time.Minute, ReadyToTrip: tripAfter(2), Now: clock.Now})

	run(b, false)
	clock.Advance(2 * time.Minute)
	run(b, false)

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().ConsecutiveFailures)
}

func TestBreakerOpenAndHalfOpen(t *testing.T) {
	clock := newClock()
	var transitions []string
	b := New("test", Settings{
		MaxRequests: 2,
		Timeout:     time.Second,
		ReadyToTrip: tripAfter(2),
		Now:         clock.Now,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	run(b, false, false)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Execute(func() error { return nil }), ErrCircuitOpen)

	clock.Advance(2 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	run(b, true, true)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := newClock()
	b := New("test", Settings{Timeout: time.Second, ReadyToTrip: tripAfter(1), Now: clock.Now})

	run(b, false)
	clock.Advance(2 * time.Second)
	run(b, false)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerHalfOpenLimit(t *testing.T) {
	clock := newClock()
	b := New("test", Settings{MaxRequests: 1, Timeout: time.Second, ReadyToTrip: tripAfter(1), Now: clock.Now})

	run(b, false)
	clock.Advance(2 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	assert.ErrorIs(t, b.Execute(func() error { return nil }), ErrTooManyRequests)
	close(release)
}

func TestCall(t *testing.T) {
	b := New("test", Settings{})

	got, err := Call(b, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	_, err = Call(b, func() (int, error) { return 0, errFailed })
	assert.ErrorIs(t, err, errFailed)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := New("test", Settings{ReadyToTrip: tripAfter(1)})

	assert.Panics(t, func() {
		_ = b.Execute(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}
