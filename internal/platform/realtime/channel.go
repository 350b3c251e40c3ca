package realtime

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func newUpgrader(allowedOrigins []string) gorillawebsocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}
	return gorillawebsocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no Origin header.
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// announcePayload carries the identity a client claims on connect.
type announcePayload struct {
	Identity string `json:"identity"`
}

// directPayload names the two parties of a typing or message event.
type directPayload struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
}

// typingIndicator is relayed to the receiver of a typing event.
type typingIndicator struct {
	Sender   string `json:"sender"`
	IsTyping bool   `json:"isTyping"`
}

// ChannelHandler handles HTTP-to-WebSocket upgrades and routes inbound
// client events to the presence tracker.
type ChannelHandler struct {
	tracker  *Tracker
	upgrader gorillawebsocket.Upgrader
}

// NewChannelHandler creates a handler bound to the given Tracker. Browser
// connections are accepted only from the allowed origins; an empty list
// or a "*" entry accepts every origin.
func NewChannelHandler(tracker *Tracker, allowedOrigins []string) *ChannelHandler {
	return &ChannelHandler{tracker: tracker, upgrader: newUpgrader(allowedOrigins)}
}

// RegisterRoutes registers the WebSocket endpoint on the provided Echo group.
func (ch *ChannelHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", ch.HandleConnect)
}

// HandleConnect upgrades an HTTP connection to WebSocket, registers the
// client with the tracker, and starts read/write pumps.
func (ch *ChannelHandler) HandleConnect(c echo.Context) error {
	ws, err := ch.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
		conn: &gorillaConnAdapter{ws},
	}

	ch.tracker.Register(client)

	go ch.writePump(client)
	go ch.readPump(client)

	return nil
}

// Dispatch routes a single decoded client event. Unknown events are
// ignored.
func (ch *ChannelHandler) Dispatch(client *Client, msg ClientEvent) {
	switch msg.Event {
	case "announce-online":
		var p announcePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		ch.tracker.Announce(client, p.Identity)

	case "typing":
		var p directPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		ch.tracker.Push(p.Receiver, "typing-indicator", typingIndicator{Sender: p.Sender, IsTyping: true})

	case "stop-typing":
		var p directPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		ch.tracker.Push(p.Receiver, "typing-indicator", typingIndicator{Sender: p.Sender, IsTyping: false})

	case "send-message":
		var p directPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		// Relay the message payload verbatim to the receiver if online.
		// Persistence happens over the HTTP send endpoint, not here.
		ch.tracker.Push(p.Receiver, "receive-message", msg.Data)
	}
}

// readPump reads frames from the WebSocket connection and dispatches them.
func (ch *ChannelHandler) readPump(client *Client) {
	defer func() {
		ch.tracker.Disconnect(client)
		client.conn.Close()
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientEvent
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed frames.
		}

		ch.Dispatch(client, msg)
	}
}

// writePump writes frames from the Send channel to the WebSocket connection.
func (ch *ChannelHandler) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.Send {
		if err := client.conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy the Conn interface.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
