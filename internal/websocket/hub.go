package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"clarity-cbt-be/internal/pkg/logger"
	"clarity-cbt-be/pkg/events"

	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// Hub fans workflow events out to websocket observers. Clients watch a
// thread id; a clinician dashboard can follow a session's pipeline
// live without holding the SSE stream open. With Redis configured,
// events reach observers connected to other instances too.
type Hub struct {
	// thread id -> observers (a thread can have several watchers)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ThreadID] = append(h.clients[client.ThreadID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Observer registered", map[string]interface{}{"thread_id": client.ThreadID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ThreadID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.ThreadID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.ThreadID]) == 0 {
					delete(h.clients, client.ThreadID)
					h.logger.Info("Hub", "Thread has no observers left", map[string]interface{}{"thread_id": client.ThreadID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify delivers a stage event to every observer of its thread, local
// and (via Redis) remote.
func (h *Hub) Notify(ev events.StageEvent) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "workflow_event",
		"data": ev,
	})

	h.sendLocal(ev.ThreadID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterPayload{
			ThreadID: ev.ThreadID,
			Message:  data,
		})
		h.rdb.Publish(context.Background(), clusterChannel, payload)
	}
}

func (h *Hub) sendLocal(threadID string, data []byte) {
	h.mu.RLock()
	clients := h.clients[threadID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Observer buffer full, dropping connection", map[string]interface{}{"thread_id": threadID})
			// The unregister path owns closing Send.
			h.unregister <- client
		}
	}
}

type clusterPayload struct {
	ThreadID string          `json:"thread_id"`
	Message  json.RawMessage `json:"message"`
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}
		h.sendLocal(payload.ThreadID, payload.Message)
	}
}
