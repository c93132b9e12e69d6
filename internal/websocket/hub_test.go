package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"money-coach-be/internal/pkg/logger"
	"money-coach-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func attach(t *testing.T, hub *Hub, userID uuid.UUID, buffer int) *Client {
	t.Helper()
	client := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, buffer)}
	hub.register <- client
	require.Eventually(t, func() bool { return hub.Connected(userID) > 0 }, time.Second, 5*time.Millisecond)
	return client
}

func readFrame(t *testing.T, client *Client) Frame {
	t.Helper()
	select {
	case raw := <-client.Send:
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return Frame{}
	}
}

func TestHub_SendEventReachesEveryDevice(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	phone := attach(t, hub, userID, 4)
	laptop := attach(t, hub, userID, 4)
	other := attach(t, hub, uuid.New(), 4)

	hub.SendEvent(userID, "chat.delta", map[string]string{"delta": "Hi"})

	assert.Equal(t, "chat.delta", readFrame(t, phone).Type)
	assert.Equal(t, "chat.delta", readFrame(t, laptop).Type)
	assert.Len(t, other.Send, 0)
}

func TestHub_PublishRoutesByUserID(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	client := attach(t, hub, userID, 4)

	require.NoError(t, hub.Publish(context.Background(), events.BaseEvent{
		Type: events.SessionClosed,
		Data: map[string]interface{}{"user_id": userID.String(), "headline": "Rent week"},
	}))
	require.NoError(t, hub.Publish(context.Background(), events.BaseEvent{Type: "NO_USER", Data: map[string]interface{}{}}))

	f := readFrame(t, client)
	assert.Equal(t, events.SessionClosed, f.Type)
	assert.Len(t, client.Send, 0)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	client := attach(t, hub, userID, 1)

	hub.SendEvent(userID, "a", nil)
	hub.SendEvent(userID, "b", nil)

	assert.Equal(t, 0, hub.Connected(userID))
	<-client.Send
	_, open := <-client.Send
	assert.False(t, open)
}
