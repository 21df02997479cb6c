package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := newRateLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "request %d within burst", i+1)
	}
	assert.False(t, rl.Allow("1.2.3.4"))
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := newRateLimiter(0.001, 1)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))
}
