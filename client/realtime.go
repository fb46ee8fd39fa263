package client

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/stickerverse/custom-sticker-shop-sub001/ws"
)

// EventHandler consumes inbound realtime events. ChatStore implements it.
type EventHandler interface {
	HandleEvent(event ws.Event)
}

// RealtimeChannel is the websocket side of chat. It dials the server's chat
// endpoint, announces its identity, and forwards server pushes to a handler.
type RealtimeChannel struct {
	url     string
	userID  string
	handler EventHandler
	logger  *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

// NewRealtimeChannel prepares a channel for the ws endpoint, e.g.
// "ws://host:8080/ws/chat". Nothing connects until Connect.
func NewRealtimeChannel(url, userID string, handler EventHandler, logger *zap.Logger) *RealtimeChannel {
	return &RealtimeChannel{
		url:     url,
		userID:  userID,
		handler: handler,
		logger:  logger,
	}
}

// Connect dials the server, sends the authenticate frame, and starts the
// read loop. Pushes for this user arrive only after the authenticate frame
// is accepted.
func (r *RealtimeChannel) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{"userId": r.userID})
	if err != nil {
		conn.Close()
		return err
	}
	if err := conn.WriteJSON(ws.Event{Type: "authenticate", Data: payload}); err != nil {
		conn.Close()
		return err
	}

	r.mu.Lock()
	r.conn = conn
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.readLoop(conn, r.done)
	return nil
}

// Close tears the connection down and waits for the read loop to exit.
func (r *RealtimeChannel) Close() error {
	r.mu.Lock()
	conn := r.conn
	done := r.done
	r.conn = nil
	r.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-done
	return err
}

func (r *RealtimeChannel) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			r.logger.Debug("realtime channel closed", zap.Error(err))
			return
		}

		var event ws.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			// Malformed frames are skipped; the connection stays up.
			r.logger.Warn("discarding malformed realtime frame", zap.Error(err))
			continue
		}
		r.handler.HandleEvent(event)
	}
}
