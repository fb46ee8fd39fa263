package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the tagged frame exchanged on the chat channel.
// Client→server: {"type":"authenticate","data":{"userId":...}}.
// Server→client: {"type":"new_message","data":Message}.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type authenticatePayload struct {
	UserID string `json:"userId"`
}

// wsClient wraps a connection with a write mutex. gorilla/websocket allows
// at most one concurrent writer per connection, and broadcasts from separate
// send handlers can target the same socket at the same time.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Hub tracks live chat connections by user id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*wsClient]bool
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*wsClient]bool),
		logger:  logger,
	}
}

// Handler upgrades the connection and serves its read loop. The socket is
// anonymous until the client sends an authenticate event; only then does it
// receive pushes.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := &wsClient{conn: conn}
		userID := ""
		defer func() {
			if userID != "" {
				h.unregister(userID, client)
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var event Event
			if err := json.Unmarshal(raw, &event); err != nil {
				// Malformed frames are logged and skipped, never fatal.
				h.logger.Warn("discarding malformed ws frame", zap.Error(err))
				continue
			}

			if event.Type == "authenticate" {
				var payload authenticatePayload
				if err := json.Unmarshal(event.Data, &payload); err != nil || payload.UserID == "" {
					h.logger.Warn("discarding malformed authenticate payload", zap.Error(err))
					continue
				}
				if userID != "" {
					h.unregister(userID, client)
				}
				userID = payload.UserID
				h.register(userID, client)
			}
		}
	}
}

func (h *Hub) register(userID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*wsClient]bool)
	}
	h.clients[userID][client] = true
}

func (h *Hub) unregister(userID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// BroadcastMessage pushes a new_message event to every connection of the
// given user ids. Write failures drop the single connection, not the rest.
func (h *Hub) BroadcastMessage(msg models.Message, userIDs ...string) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal chat message", zap.Error(err))
		return
	}
	frame, err := json.Marshal(Event{Type: "new_message", Data: data})
	if err != nil {
		h.logger.Error("failed to marshal ws event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range userIDs {
		for client := range h.clients[userID] {
			if err := client.write(frame); err != nil {
				h.logger.Warn("ws write failed",
					zap.String("user_id", userID),
					zap.Error(err))
			}
		}
	}
}
