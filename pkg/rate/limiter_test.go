package rate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoLimiter(t *testing.T) {
	for _, l := range []Limiter{&NoLimiter{}, New(0, 10), New(-1, 10)} {
		for i := 0; i < 1000; i++ {
			assert.True(t, l.Allow("recipient"))
		}
	}
}

func TestLocalLimiter(t *testing.T) {
	l := New(0.001, 2)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	assert.True(t, l.Allow("b"))
	assert.True(t, l.Allow("b"))
	assert.False(t, l.Allow("b"))
}

func TestLocalLimiter_MinimumBurst(t *testing.T) {
	l := New(0.001, 0)

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}
