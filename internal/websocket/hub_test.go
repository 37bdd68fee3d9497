package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dom/photo-gallery/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHub_BroadcastsToAllClients(t *testing.T) {
	hub := startHub(t)

	a := NewClient(hub, nil, uuid.New())
	b := NewClient(hub, nil, uuid.New())
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	imageID := uuid.New()
	likes := int64(3)
	hub.Notify(domain.GalleryEvent{Type: domain.EventLikeToggled, ImageID: imageID, Likes: &likes})

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.Equal(t, MessageTypeLikeToggled, msg.Type)
		assert.NotZero(t, msg.Timestamp)

		var payload domain.GalleryEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, imageID, payload.ImageID)
		require.NotNil(t, payload.Likes)
		assert.Equal(t, int64(3), *payload.Likes)
	}
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub := startHub(t)

	c := NewClient(hub, nil, uuid.New())
	hub.Register(c)
	hub.Unregister(c)

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-c.send
	assert.False(t, ok)
}

func TestHub_SkipsSlowClients(t *testing.T) {
	hub := startHub(t)

	slow := NewClient(hub, nil, uuid.New())
	hub.Register(slow)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < cap(slow.send)+10; i++ {
		hub.Notify(domain.GalleryEvent{Type: domain.EventImageUploaded, ImageID: uuid.New()})
	}

	require.Eventually(t, func() bool { return len(slow.send) == cap(slow.send) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := NewClient(hub, nil, uuid.New())
	hub.Register(c)
	hub.Stop()

	_, ok := <-c.send
	assert.False(t, ok)

	// Safe after stop
	hub.Notify(domain.GalleryEvent{Type: domain.EventImageDeleted})
	hub.Stop()
}
