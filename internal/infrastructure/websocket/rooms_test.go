package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomJoinLeave(t *testing.T) {
	r := NewRoomRouter()
	c1 := &Client{}
	c2 := &Client{}

	r.Join("chat-1", c1)
	r.Join("chat-1", c2)
	assert.True(t, r.Contains("chat-1", c1))
	assert.Len(t, r.Members("chat-1"), 2)

	r.Leave("chat-1", c1)
	assert.False(t, r.Contains("chat-1", c1))
	assert.Len(t, r.Members("chat-1"), 1)
}

func TestRoomLeaveAll(t *testing.T) {
	r := NewRoomRouter()
	c := &Client{}

	r.Join("chat-1", c)
	r.Join("chat-2", c)
	r.LeaveAll(c)

	assert.False(t, r.Contains("chat-1", c))
	assert.False(t, r.Contains("chat-2", c))
	assert.Empty(t, r.Members("chat-1"))
	assert.Empty(t, r.Members("chat-2"))
}

func TestRoomMembersOfUnknownRoom(t *testing.T) {
	r := NewRoomRouter()
	assert.Empty(t, r.Members("nope"))
}
