package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffFixedByDefault(t *testing.T) {
	b := NewBackoff(DefaultBackoffConfig())

	for i := 0; i < 5; i++ {
		assert.Equal(t, DefaultBackoff, b.Next())
	}
}

func TestBackoffExponentialCapped(t *testing.T) {
	b := NewBackoff(BackoffConfig{
		Initial:    100 * time.Millisecond,
		Max:        500 * time.Millisecond,
		Multiplier: 2,
	})

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
	}
	for i, w := range want {
		assert.Equal(t, w, b.Next(), "step %d", i)
	}
}

func TestBackoffJitter(t *testing.T) {
	b := NewBackoff(BackoffConfig{
		Initial:    time.Second,
		Multiplier: 1,
		Jitter:     0.25,
	})

	for i := 0; i < 20; i++ {
		d := b.Next()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
	}
}

func TestBackoffSanitizesConfig(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: -1, Multiplier: 0.5, Jitter: -1})
	assert.Equal(t, time.Duration(0), b.Next())
	assert.Equal(t, time.Duration(0), b.Next())
}
