package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
	"github.com/stickerverse/custom-sticker-shop-sub001/ws"
)

// ErrBusy is returned when a send or conversation create is already in
// flight. Busy flags reject concurrent calls; they never queue them.
var ErrBusy = errors.New("operation already in flight")

// Notifier surfaces transient notifications (new message in a background
// conversation). Implementations must be safe to call from the realtime
// goroutine.
type Notifier interface {
	Notify(title, body string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(string, string) {}

// ChatStore holds the conversation list and the active conversation. REST
// calls and inbound realtime events both mutate it; every async result is
// checked for freshness before it lands.
type ChatStore struct {
	mu       sync.Mutex
	api      *Client
	logger   *zap.Logger
	notifier Notifier

	conversations []models.Conversation
	active        *models.Conversation
	activeID      uint
	unread        int

	// loadGen invalidates stale conversation fetches: a response only
	// applies if no newer load started after it.
	loadGen   uint64
	loadingID uint

	sending  bool
	creating bool
}

func NewChatStore(api *Client, notifier Notifier, logger *zap.Logger) *ChatStore {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ChatStore{api: api, logger: logger, notifier: notifier}
}

// Conversations returns a snapshot of the conversation list.
func (s *ChatStore) Conversations() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Active returns a copy of the active conversation, if loaded.
func (s *ChatStore) Active() (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return models.Conversation{}, false
	}
	return *s.active, true
}

// ActiveID returns the id selected by ActivateConversation.
func (s *ChatStore) ActiveID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Unread returns the count of inbound unread messages across conversations.
func (s *ChatStore) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// LoadConversations fetches the conversation list and recomputes the unread
// count from denormalized last messages.
func (s *ChatStore) LoadConversations(ctx context.Context) error {
	if !s.api.Authenticated() {
		return ErrUnauthenticated
	}

	conversations, err := s.api.GetConversations(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = conversations
	s.unread = 0
	for _, conv := range conversations {
		if conv.LastMessage != nil && !conv.LastMessage.Read && conv.LastMessage.SenderID != s.api.UserID() {
			s.unread++
		}
	}
	return nil
}

// ActivateConversation selects which conversation is displayed. It is a pure
// state transition: idempotent for an unchanged id and never triggers a
// fetch itself — loading is a separate step keyed only on the id, which
// keeps activation and loading from feeding back into each other.
func (s *ChatStore) ActivateConversation(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == id {
		return
	}
	s.activeID = id
	s.active = nil
}

// LoadConversation fetches the full message history for id. A load already
// in flight for the same id, or an already-loaded matching conversation,
// short-circuits without a request. A response that comes back after a newer
// load started, or after the user moved on, is discarded.
func (s *ChatStore) LoadConversation(ctx context.Context, id uint) error {
	s.mu.Lock()
	if s.active != nil && s.active.ID == id {
		s.mu.Unlock()
		return nil
	}
	if s.loadingID == id {
		s.mu.Unlock()
		return nil
	}
	s.loadGen++
	gen := s.loadGen
	s.loadingID = id
	s.mu.Unlock()

	conversation, err := s.api.GetConversation(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadingID == id {
		s.loadingID = 0
	}
	if err != nil {
		return err
	}
	if gen != s.loadGen || s.activeID != id {
		// A newer load superseded this one, or the user switched away.
		s.logger.Debug("discarding stale conversation load", zap.Uint("conversation_id", id))
		return nil
	}
	s.active = &conversation
	return nil
}

// SendMessage posts a message to its conversation. Concurrent sends are
// rejected with ErrBusy rather than silently dropped.
func (s *ChatStore) SendMessage(ctx context.Context, req SendMessageRequest) (models.Message, error) {
	if !s.api.Authenticated() {
		return models.Message{}, ErrUnauthenticated
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return models.Message{}, ErrBusy
	}
	s.sending = true
	s.mu.Unlock()

	message, err := s.api.SendMessage(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
	if err != nil {
		return models.Message{}, err
	}

	if s.active != nil && s.active.ID == message.ConversationID {
		s.active.Messages = append(s.active.Messages, message)
	}
	s.setLastMessageLocked(message)
	return message, nil
}

// CreateNewConversation opens a direct chat. The busy flag makes a second
// call fail fast instead of creating a duplicate conversation.
func (s *ChatStore) CreateNewConversation(ctx context.Context, subject string) (models.Conversation, error) {
	if !s.api.Authenticated() {
		return models.Conversation{}, ErrUnauthenticated
	}

	s.mu.Lock()
	if s.creating {
		s.mu.Unlock()
		return models.Conversation{}, ErrBusy
	}
	s.creating = true
	s.mu.Unlock()

	conversation, err := s.api.CreateConversation(ctx, subject, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creating = false
	if err != nil {
		return models.Conversation{}, err
	}
	s.conversations = append([]models.Conversation{conversation}, s.conversations...)
	return conversation, nil
}

// HandleEvent applies an inbound realtime event. Malformed payloads are
// logged and dropped, never fatal.
func (s *ChatStore) HandleEvent(event ws.Event) {
	switch event.Type {
	case "new_message":
		var message models.Message
		if err := json.Unmarshal(event.Data, &message); err != nil {
			s.logger.Warn("discarding malformed new_message payload", zap.Error(err))
			return
		}
		s.applyNewMessage(message)
	default:
		s.logger.Debug("ignoring unknown realtime event", zap.String("type", event.Type))
	}
}

func (s *ChatStore) applyNewMessage(message models.Message) {
	s.mu.Lock()

	isActive := s.activeID == message.ConversationID
	if isActive && s.active != nil {
		s.active.Messages = append(s.active.Messages, message)
	}
	// The list's lastMessage updates whether or not the conversation is
	// on screen.
	s.setLastMessageLocked(message)

	inbound := message.SenderID != s.api.UserID()
	if inbound {
		s.unread++
	}
	s.mu.Unlock()

	if inbound && !isActive {
		s.notifier.Notify("New message", message.Content)
	}
}

// setLastMessageLocked updates the denormalized lastMessage pointer on the
// conversation list entry. Caller holds the mutex.
func (s *ChatStore) setLastMessageLocked(message models.Message) {
	for i := range s.conversations {
		if s.conversations[i].ID == message.ConversationID {
			msg := message
			s.conversations[i].LastMessage = &msg
			return
		}
	}
}
