/*
Package main
File: client.go
Description:
    The WebSocket transport layer. Each connection gets a Client with a
    buffered outbound channel and dedicated read/write pumps, so one slow
    browser never stalls a session's broadcast. Inbound frames are JSON
    envelopes routed through a closed dispatch table; unknown types and
    malformed frames are logged and dropped while the connection stays open.
*/

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/canyonworks/towerdef-server/internal/game"
)

// defaultMapID is the map used for newly created rooms until the client
// lobby grows a map picker.
const defaultMapID = "canyon_of_echoes"

// Client->server message types.
const (
	typeCreateGame      = "create_game"
	typeJoinGame        = "join_game"
	typeStartGame       = "start_game"
	typeBuildTower      = "build_tower"
	typeUpgradeTower    = "upgrade_tower"
	typeSellTower       = "sell_tower"
	typeSendChatMessage = "send_chat_message"
)

// clientEnvelope defers payload decoding until the type is known.
type clientEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinGamePayload struct {
	RoomID string `json:"roomId"`
}

type buildTowerPayload struct {
	TowerID  string        `json:"towerId"`
	Position game.Position `json:"position"`
}

type towerInstancePayload struct {
	TowerInstanceID string `json:"towerInstanceId"`
}

type chatPayload struct {
	Message string `json:"message"`
}

// Client represents a single connected player. It implements game.PlayerConn
// for the session layer.
type Client struct {
	id   string
	nick string
	conn *websocket.Conn

	sessions *game.Directory
	session  *game.Session // Set on create/join; touched only by the read pump

	mu     sync.Mutex // Guards send against a concurrent close
	send   chan []byte
	closed bool
}

// ID returns the player id assigned at upgrade time.
func (c *Client) ID() string { return c.id }

// Nick returns the display name supplied at connect time.
func (c *Client) Nick() string { return c.nick }

// Send queues an outbound frame without blocking. A full buffer or a closed
// connection silently drops the frame; broadcasts never fail on one slow
// recipient.
func (c *Client) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// shutdown closes the outbound channel exactly once, releasing the write
// pump.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// upgrader configures the WebSocket handshake. CheckOrigin is permissive so
// the browser client can connect cross-domain.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveWs upgrades an HTTP request to a WebSocket connection and starts the
// pumps. Player identity is assigned here: a fresh id plus the nick from the
// query string.
func serveWs(sessions *game.Directory, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WS Upgrade Error:", err)
		return
	}

	id := "player_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	nick := r.URL.Query().Get("nick")
	if nick == "" {
		nick = "user-" + id[len(id)-5:]
	}

	client := &Client{
		id:       id,
		nick:     nick,
		conn:     conn,
		sessions: sessions,
		send:     make(chan []byte, 256),
	}
	log.Printf("WS: new connection %s (%s)", client.id, client.nick)

	go client.writePump()
	go client.readPump()
}

// readPump consumes inbound frames until the connection drops, then detaches
// the player from their session.
func (c *Client) readPump() {
	defer func() {
		c.disconnect()
		c.conn.Close()
		c.shutdown()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS read error (%s): %v", c.id, err)
			}
			break
		}

		var env clientEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("WS: dropping malformed frame from %s: %v", c.id, err)
			continue
		}
		c.handleMessage(env)
	}
}

// writePump ships queued frames to the socket until the channel closes.
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// disconnect removes the player from their session and drops the session
// from the directory once it has no members left.
func (c *Client) disconnect() {
	log.Printf("WS: connection closed %s (%s)", c.id, c.nick)
	session := c.session
	if session == nil {
		return
	}
	c.session = nil

	session.RemovePlayer(c.id)
	if session.PlayerCount() == 0 {
		c.sessions.RemoveSession(session.ID)
	}
}

// handleMessage routes one inbound envelope. The type vocabulary is closed;
// anything else is logged and dropped.
func (c *Client) handleMessage(env clientEnvelope) {
	switch env.Type {
	case typeCreateGame:
		c.handleCreateGame()

	case typeJoinGame:
		var payload joinGamePayload
		if !c.decode(env, &payload) {
			return
		}
		c.handleJoinGame(payload.RoomID)

	case typeStartGame:
		if c.session != nil {
			c.session.StartGame(c.id)
		}

	case typeBuildTower:
		var payload buildTowerPayload
		if !c.decode(env, &payload) {
			return
		}
		if c.session != nil {
			c.session.BuildTower(c.id, payload.TowerID, payload.Position)
		}

	case typeUpgradeTower:
		var payload towerInstancePayload
		if !c.decode(env, &payload) {
			return
		}
		if c.session != nil {
			c.session.UpgradeTower(c.id, payload.TowerInstanceID)
		}

	case typeSellTower:
		var payload towerInstancePayload
		if !c.decode(env, &payload) {
			return
		}
		if c.session != nil {
			c.session.SellTower(c.id, payload.TowerInstanceID)
		}

	case typeSendChatMessage:
		var payload chatPayload
		if !c.decode(env, &payload) {
			return
		}
		if c.session != nil {
			c.session.HandleChatMessage(c.id, payload.Message)
		}

	default:
		log.Printf("WS: no handler for message type %q from %s", env.Type, c.id)
	}
}

func (c *Client) decode(env clientEnvelope, into any) bool {
	if err := json.Unmarshal(env.Payload, into); err != nil {
		log.Printf("WS: dropping %s with bad payload from %s: %v", env.Type, c.id, err)
		return false
	}
	return true
}

func (c *Client) handleCreateGame() {
	if c.session != nil {
		c.sendEnvelope(game.Envelope{Type: game.TypeErrorMessage, Payload: map[string]any{
			"message": "You are already in a game.",
		}})
		return
	}

	session, err := c.sessions.CreateSession(c, defaultMapID)
	if err != nil {
		log.Printf("WS: create_game failed for %s: %v", c.id, err)
		c.sendEnvelope(game.Envelope{Type: game.TypeErrorMessage, Payload: map[string]any{
			"message": "Could not create the game.",
		}})
		return
	}

	c.session = session
	c.sendJoined(session, true)
}

func (c *Client) handleJoinGame(roomID string) {
	if c.session != nil {
		c.sendEnvelope(game.Envelope{Type: game.TypeErrorMessage, Payload: map[string]any{
			"message": "You are already in a game.",
		}})
		return
	}

	session := c.sessions.JoinSession(roomID, c)
	if session == nil {
		c.sendEnvelope(game.Envelope{Type: game.TypeErrorMessage, Payload: map[string]any{
			"message": fmt.Sprintf("Could not join room %s.", roomID),
		}})
		return
	}

	c.session = session
	c.sendJoined(session, session.HostID == c.id)
}

func (c *Client) sendJoined(session *game.Session, isHost bool) {
	c.sendEnvelope(game.Envelope{Type: game.TypeGameJoined, Payload: game.GameJoined{
		GameState: session.Snapshot(),
		PlayerID:  c.id,
		IsHost:    isHost,
	}})
}

func (c *Client) sendEnvelope(env game.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("WS: marshal failed for %s: %v", c.id, err)
		return
	}
	c.Send(data)
}
