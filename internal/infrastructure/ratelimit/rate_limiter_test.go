package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinLimit(t *testing.T) {
	r := NewRateLimiter(3, time.Minute)
	t.Cleanup(r.Stop)

	assert.True(t, r.Allow("user-1:sendMessage"))
	assert.True(t, r.Allow("user-1:sendMessage"))
	assert.True(t, r.Allow("user-1:sendMessage"))
	assert.False(t, r.Allow("user-1:sendMessage"))
}

func TestKeysAreIndependent(t *testing.T) {
	r := NewRateLimiter(1, time.Minute)
	t.Cleanup(r.Stop)

	assert.True(t, r.Allow("user-1:sendMessage"))
	assert.False(t, r.Allow("user-1:sendMessage"))
	assert.True(t, r.Allow("user-2:sendMessage"))
}

func TestTokensRefill(t *testing.T) {
	r := NewRateLimiter(2, 100*time.Millisecond)
	t.Cleanup(r.Stop)

	assert.True(t, r.Allow("k"))
	assert.True(t, r.Allow("k"))
	assert.False(t, r.Allow("k"))

	time.Sleep(120 * time.Millisecond)
	assert.True(t, r.Allow("k"))
}
