package ws

import (
	"sync"

	"github.com/rs/zerolog"

	"messenger-service/internal/observability"
)

// Hub is the process-wide connection registry and fan-out broadcaster. It
// maintains two addressing scopes: personal rooms (one per user, spanning all
// of that user's devices) and conversation rooms (one per chat id, joined
// explicitly). The registry is volatile and rebuilt from live connections
// after a restart.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[*Client]bool
	chats map[string]map[*Client]bool

	log zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		users: make(map[string]map[*Client]bool),
		chats: make(map[string]map[*Client]bool),
		log:   log,
	}
}

// AddUser registers a connection in its owner's personal room. Existing
// connections of the same user are kept: one entry per device or tab.
func (h *Hub) AddUser(userID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[*Client]bool)
	}
	h.users[userID][c] = true
}

// RemoveUser removes exactly the given connection from the personal room and
// returns how many connections the user still has. Keying removal by handle
// keeps a fast reconnect from being clobbered by a stale disconnect.
func (h *Hub) RemoveUser(userID string, c *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.users[userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, userID)
			return 0
		}
		return len(conns)
	}
	return 0
}

// JoinChat subscribes a connection to a conversation room.
func (h *Hub) JoinChat(chatID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.chats[chatID]; !ok {
		h.chats[chatID] = make(map[*Client]bool)
	}
	h.chats[chatID][c] = true
}

// LeaveChat unsubscribes a connection from a conversation room.
func (h *Hub) LeaveChat(chatID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromChatLocked(chatID, c)
}

// LeaveAllChats drops the connection from every conversation room, used on
// disconnect.
func (h *Hub) LeaveAllChats(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for chatID := range h.chats {
		h.removeFromChatLocked(chatID, c)
	}
}

func (h *Hub) removeFromChatLocked(chatID string, c *Client) {
	if conns, ok := h.chats[chatID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.chats, chatID)
		}
	}
}

// UserConnectionCount reports how many live connections a user has.
func (h *Hub) UserConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// ChatRoomSize reports how many connections currently watch a conversation.
func (h *Hub) ChatRoomSize(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.chats[chatID])
}

// BroadcastToUser delivers an event to every connection in a personal room.
// An empty room is a silent no-op; use UserConnectionCount for reachability.
func (h *Hub) BroadcastToUser(userID, event string, data any) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.deliver(c, event, data)
	}
}

// BroadcastToChat delivers an event to every connection in a conversation
// room.
func (h *Hub) BroadcastToChat(chatID, event string, data any) {
	h.broadcastChat(chatID, nil, event, data)
}

// BroadcastToChatExcept delivers to the conversation room, skipping one
// connection. Used for typing relays, where the typist must not echo.
func (h *Hub) BroadcastToChatExcept(chatID string, except *Client, event string, data any) {
	h.broadcastChat(chatID, except, event, data)
}

func (h *Hub) broadcastChat(chatID string, except *Client, event string, data any) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.chats[chatID]))
	for c := range h.chats[chatID] {
		if c != except {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(event, data); err != nil {
			h.log.Warn().Err(err).Str("event", event).Str("chat_id", chatID).Str("conn_id", c.ID()).Msg("websocket write failed")
			c.Close()
			h.LeaveChat(chatID, c)
			observability.IncWSEvent("ws_error")
		}
	}
}

// BroadcastAll delivers an event to every connected client, e.g. presence
// changes.
func (h *Hub) BroadcastAll(event string, data any) {
	h.mu.RLock()
	conns := make([]*Client, 0)
	for _, set := range h.users {
		for c := range set {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.deliver(c, event, data)
	}
}

func (h *Hub) deliver(c *Client, event string, data any) {
	if err := c.Send(event, data); err != nil {
		h.log.Warn().Err(err).Str("event", event).Str("conn_id", c.ID()).Msg("websocket write failed")
		c.Close()
		h.RemoveUser(c.UserID(), c)
		observability.IncWSEvent("ws_error")
	}
}
