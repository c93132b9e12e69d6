package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"money-coach-be/internal/pkg/logger"
	"money-coach-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel carries frames between instances when redis is configured.
const Channel = "coach_events"

// Frame is what clients receive.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type clusterPayload struct {
	TargetUserID string          `json:"target_user_id"`
	Origin       string          `json:"origin"`
	Message      json.RawMessage `json:"message"`
}

// Hub fans frames out to every connection of a user (multi-device) and,
// through redis, to connections held by other instances.
type Hub struct {
	// UserID -> connections
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb    *redis.Client
	origin string
	logger logger.ILogger
}

var _ events.Sink = (*Hub)(nil)

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		origin:     uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info(logger.ModuleHub, "Client registered", map[string]interface{}{"user_id": client.UserID.String()})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
		h.logger.Info(logger.ModuleHub, "Client completely unregistered", map[string]interface{}{"user_id": client.UserID.String()})
	}
}

// SendEvent delivers a frame to every connection of userID.
func (h *Hub) SendEvent(userID uuid.UUID, eventType string, data interface{}) {
	message, err := json.Marshal(Frame{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error(logger.ModuleHub, "Failed to encode frame", map[string]interface{}{"type": eventType, "error": err.Error()})
		return
	}

	h.deliverLocal(userID, message)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterPayload{
			TargetUserID: userID.String(),
			Origin:       h.origin,
			Message:      message,
		})
		if err := h.rdb.Publish(context.Background(), Channel, payload).Err(); err != nil {
			h.logger.Warn(logger.ModuleHub, "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Publish implements events.Sink. Events without a user_id are dropped.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	raw, _ := event.Payload()["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	h.SendEvent(userID, event.EventType(), event.Payload())
	return nil
}

// Connected reports how many connections userID holds on this instance.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) deliverLocal(userID uuid.UUID, message []byte) {
	var stale []*Client

	h.mu.RLock()
	for _, client := range h.clients[userID] {
		select {
		case client.Send <- message:
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		h.logger.Warn(logger.ModuleHub, "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": userID.String()})
		h.remove(client)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, Channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterPayload
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn(logger.ModuleHub, "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.origin {
				continue
			}
			uid, err := uuid.Parse(payload.TargetUserID)
			if err != nil {
				continue
			}
			h.deliverLocal(uid, payload.Message)
		}
	}
}
