package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outcome is one delivery attempt against the guarded sink.
type outcome bool

const (
	ok   outcome = true
	fail outcome = false
)

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		attempts  []outcome
		wantState State
		// indexes of attempts that flipped the breaker
		opensAt  []int
		closesAt []int
	}{
		{
			name:      "new breaker is closed",
			wantState: StateClosed,
		},
		{
			name:      "short outage stays closed",
			opts:      []Option{WithFailureThreshold(3)},
			attempts:  []outcome{fail, fail},
			wantState: StateClosed,
		},
		{
			name:      "sustained outage opens once",
			opts:      []Option{WithFailureThreshold(3)},
			attempts:  []outcome{fail, fail, fail, fail, fail},
			wantState: StateOpen,
			opensAt:   []int{2},
		},
		{
			name:      "delivery between failures restarts the count",
			opts:      []Option{WithFailureThreshold(3)},
			attempts:  []outcome{fail, fail, ok, fail, fail},
			wantState: StateClosed,
		},
		{
			name:      "recovery needs consecutive deliveries",
			opts:      []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			attempts:  []outcome{fail, ok, fail, ok, ok},
			wantState: StateClosed,
			opensAt:   []int{0},
			closesAt:  []int{4},
		},
		{
			name:      "flapping sink reopens",
			opts:      []Option{WithFailureThreshold(1)},
			attempts:  []outcome{fail, ok, fail},
			wantState: StateOpen,
			opensAt:   []int{0, 2},
			closesAt:  []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("audit_sink", tt.opts...)
			var opened, closed []int
			for i, o := range tt.attempts {
				var change StateChange
				if o == ok {
					_, change = b.RecordSuccess()
				} else {
					_, change = b.RecordFailure()
				}
				if change.Opened {
					opened = append(opened, i)
				}
				if change.Closed {
					closed = append(closed, i)
				}
			}
			assert.Equal(t, tt.wantState, b.State())
			assert.Equal(t, tt.opensAt, opened)
			assert.Equal(t, tt.closesAt, closed)
			assert.Equal(t, "audit_sink", b.Name())
		})
	}
}

func TestBreakerFallbackFlags(t *testing.T) {
	b := New("audit_sink", WithFailureThreshold(2))

	useFallback, _ := b.RecordFailure()
	assert.False(t, useFallback, "below threshold the sink is still primary")
	useFallback, _ = b.RecordFailure()
	assert.True(t, useFallback)
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened, "already open")

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestBreakerAdmitsOneProbePerCooldown(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	b := New("audit_sink",
		WithFailureThreshold(1),
		WithCooldown(30*time.Second),
		WithClock(func() time.Time { return now }),
	)
	require.True(t, b.Allow())

	b.RecordFailure()
	assert.False(t, b.Allow(), "blocked during cooldown")

	now = now.Add(29 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(time.Second)
	assert.True(t, b.Allow(), "probe after cooldown")
	assert.False(t, b.Allow(), "only one probe per window")

	// A failed probe pushes the next window out from the failure.
	now = now.Add(10 * time.Second)
	b.RecordFailure()
	now = now.Add(29 * time.Second)
	assert.False(t, b.Allow())
	now = now.Add(time.Second)
	assert.True(t, b.Allow())

	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
	assert.True(t, b.Allow(), "closed breaker never throttles")
}

func TestBreakerReset(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	b := New("audit_sink", WithFailureThreshold(1), WithClock(func() time.Time { return now }))
	b.RecordFailure()
	require.True(t, b.IsOpen())
	require.False(t, b.Allow())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
	assert.Equal(t, "closed", b.State().String())
}
