package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
)

// Hub indexes open clients by user and routes room events to the clients
// currently pointed at that room.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "websocket_hub"),
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (that *Hub) register(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	userClients, ok := that.clients[client.user.ID]
	if !ok {
		userClients = make(map[*Client]struct{})
		that.clients[client.user.ID] = userClients
	}
	userClients[client] = struct{}{}
}

func (that *Hub) unregister(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	userClients := that.clients[client.user.ID]
	delete(userClients, client)
	if len(userClients) == 0 {
		delete(that.clients, client.user.ID)
	}
}

// Deliver implements room.Notifier. It never blocks.
func (that *Hub) Deliver(gameID, userID string, event entity.Event) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	userClients := that.clients[userID]
	if len(userClients) == 0 {
		return
	}

	var data []byte
	for client := range userClients {
		if client.GameID() != gameID {
			continue
		}

		if data == nil {
			var err error
			if data, err = json.Marshal(event); err != nil {
				that.logger.Error("failed to marshal event", "action", event.Action, "error", err)
				return
			}
		}

		client.enqueue(data)
	}
}

func (that *Hub) closeAll() {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, userClients := range that.clients {
		for client := range userClients {
			client.close()
		}
	}
}
