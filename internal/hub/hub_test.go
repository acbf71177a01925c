package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvMessage(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for broadcast")
		return nil
	}
}

func TestRoomHub_Broadcast(t *testing.T) {
	h := NewHub()
	rh := h.GetOrCreateRoomHub("room-1")

	client := &Client{ID: "c1", Send: make(chan []byte, 4)}
	rh.Register(client)

	rh.Broadcast([]byte("hello"))

	assert.Equal(t, []byte("hello"), recvMessage(t, client.Send))
}

func TestHub_GetOrCreateIsIdempotent(t *testing.T) {
	h := NewHub()
	first := h.GetOrCreateRoomHub("room-1")
	second := h.GetOrCreateRoomHub("room-1")
	require.Same(t, first, second)

	assert.Nil(t, h.GetRoomHub("room-2"))
}

func TestRoomHub_DropsSlowClient(t *testing.T) {
	h := NewHub()
	rh := h.GetOrCreateRoomHub("room-1")

	slow := &Client{ID: "slow", Send: make(chan []byte)} // unbuffered, never read
	fast := &Client{ID: "fast", Send: make(chan []byte, 4)}
	rh.Register(slow)
	rh.Register(fast)

	rh.Broadcast([]byte("one"))
	rh.Broadcast([]byte("two"))

	assert.Equal(t, []byte("one"), recvMessage(t, fast.Send))
	assert.Equal(t, []byte("two"), recvMessage(t, fast.Send))

	// The slow client's channel is closed when it gets dropped.
	select {
	case _, ok := <-slow.Send:
		assert.False(t, ok, "expected slow client channel to be closed")
	case <-time.After(time.Second):
		t.Fatal("slow client was never dropped")
	}
}

func TestHub_RemoveRoomHubClosesClients(t *testing.T) {
	h := NewHub()
	rh := h.GetOrCreateRoomHub("room-1")

	client := &Client{ID: "c1", Send: make(chan []byte, 4)}
	rh.Register(client)

	h.RemoveRoomHub("room-1")

	select {
	case _, ok := <-client.Send:
		assert.False(t, ok, "expected channel closed on hub removal")
	case <-time.After(time.Second):
		t.Fatal("client channel not closed after hub removal")
	}

	assert.Nil(t, h.GetRoomHub("room-1"))
}
