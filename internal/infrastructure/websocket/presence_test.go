package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceFirstAndLastConnection(t *testing.T) {
	p := NewPresenceTracker()
	c1 := &Client{}
	c2 := &Client{}

	assert.True(t, p.Add("user-1", c1), "first connection should come online")
	assert.False(t, p.Add("user-1", c2), "second connection should not re-announce")
	assert.True(t, p.IsOnline("user-1"))

	assert.False(t, p.Remove("user-1", c1), "user still has a live connection")
	assert.True(t, p.IsOnline("user-1"))

	assert.True(t, p.Remove("user-1", c2), "last connection should go offline")
	assert.False(t, p.IsOnline("user-1"))
}

func TestPresenceRemoveUnknownConnection(t *testing.T) {
	p := NewPresenceTracker()
	c1 := &Client{}

	assert.False(t, p.Remove("user-1", c1))

	p.Add("user-1", c1)
	assert.False(t, p.Remove("user-1", &Client{}), "removing a foreign connection must not flip status")
	assert.True(t, p.IsOnline("user-1"))
}

func TestPresenceSnapshot(t *testing.T) {
	p := NewPresenceTracker()
	p.Add("user-1", &Client{})
	p.Add("user-2", &Client{})

	assert.ElementsMatch(t, []string{"user-1", "user-2"}, p.Snapshot())
}
