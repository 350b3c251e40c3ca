// Package realtime provides live presence tracking and message delivery
// over WebSockets. Connected clients announce an identity (their account
// email); the tracker maps each identity to its active connection and
// broadcasts the full online set whenever it changes.
package realtime

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Event is the envelope for every frame sent to a WebSocket client.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// ClientEvent is the envelope for inbound frames from a WebSocket client.
// Data is kept raw so handlers can decode per event type.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single WebSocket connection. Identity is empty
// until the client announces itself.
type Client struct {
	ID       string
	Identity string
	Send     chan []byte
	conn     Conn
}

// Pusher delivers an event to the active connection of a single identity.
// Implemented by Tracker; services depend on this interface so delivery
// can be mocked in tests.
type Pusher interface {
	Push(identity, event string, data interface{}) bool
}

// Tracker is the central presence registry. For each identity at most one
// connection is considered active; a newer announcement for the same
// identity replaces the older one. All operations are thread-safe via
// sync.RWMutex.
type Tracker struct {
	mu     sync.RWMutex
	online map[string]*Client   // identity -> active connection
	all    map[*Client]struct{} // all connected clients, announced or not
	logger zerolog.Logger
}

// NewTracker creates a Tracker ready to manage WebSocket clients.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		online: make(map[string]*Client),
		all:    make(map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a freshly connected client. The client does not appear in
// the online set until it announces an identity.
func (t *Tracker) Register(client *Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.all[client] = struct{}{}
}

// Announce binds an identity to a client and broadcasts the updated online
// set to every connection. A repeat announcement for the same identity
// from a different connection takes over delivery; the older connection
// stays open but no longer receives pushes.
func (t *Tracker) Announce(client *Client, identity string) {
	if identity == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.all[client]; !ok {
		return
	}

	// A client re-announcing under a new identity releases its old slot.
	if client.Identity != "" && client.Identity != identity {
		if cur, ok := t.online[client.Identity]; ok && cur == client {
			delete(t.online, client.Identity)
		}
	}

	client.Identity = identity
	t.online[identity] = client
	t.broadcastOnlineLocked()
}

// Disconnect removes a client from the registry and closes its Send
// channel. If the client held an identity's active slot, the online set
// shrinks and the change is broadcast to the remaining connections.
func (t *Tracker) Disconnect(client *Client) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.all[client]; !ok {
		return
	}
	delete(t.all, client)
	close(client.Send)

	if client.Identity != "" {
		if cur, ok := t.online[client.Identity]; ok && cur == client {
			delete(t.online, client.Identity)
			t.broadcastOnlineLocked()
		}
	}
}

// Push sends an event to the active connection of the given identity.
// Returns false when the identity is offline or its buffer is full.
func (t *Tracker) Push(identity, event string, data interface{}) bool {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		t.logger.Warn().Err(err).Str("event", event).Msg("failed to marshal event")
		return false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	client, ok := t.online[identity]
	if !ok {
		return false
	}

	select {
	case client.Send <- payload:
		return true
	default:
		// Client buffer full; drop rather than block.
		return false
	}
}

// IsOnline reports whether an identity has an active connection.
func (t *Tracker) IsOnline(identity string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[identity]
	return ok
}

// OnlineIdentities returns the sorted set of announced identities.
func (t *Tracker) OnlineIdentities() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onlineIdentitiesLocked()
}

// ClientCount returns the total number of connections, announced or not.
func (t *Tracker) ClientCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.all)
}

func (t *Tracker) onlineIdentitiesLocked() []string {
	identities := make([]string, 0, len(t.online))
	for identity := range t.online {
		identities = append(identities, identity)
	}
	sort.Strings(identities)
	return identities
}

// broadcastOnlineLocked fans out the current online set to every
// connection. Callers must hold t.mu.
func (t *Tracker) broadcastOnlineLocked() {
	payload, err := json.Marshal(Event{Event: "presence-set", Data: t.onlineIdentitiesLocked()})
	if err != nil {
		t.logger.Warn().Err(err).Msg("failed to marshal presence set")
		return
	}

	for client := range t.all {
		select {
		case client.Send <- payload:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}
