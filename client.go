package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	commandWait       = 5 * time.Second
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
	binaryMarker      = 0xFF
)

var ErrRateLimited = errors.New("rate limit exceeded")

// Client represents a WebSocket connection. It is the room's Broadcaster
// for the player it carries.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	msgCount   int
	msgResetAt time.Time

	mu       sync.Mutex
	playerID string

	// sendMu orders enqueue against closeSend
	sendMu sync.Mutex
	closed bool
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// PlayerID returns the id of the joined player, or "" before join
func (c *Client) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

func (c *Client) setPlayerID(id string) {
	c.mu.Lock()
	c.playerID = id
	c.mu.Unlock()
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("ws read", "addr", c.remoteAddr, "err", err)
			}
			break
		}

		if err := c.allow(time.Now()); err != nil {
			Log.Warnw("disconnecting client", "addr", c.remoteAddr, "player", c.PlayerID(), "err", err)
			break
		}

		if msgType != websocket.TextMessage {
			continue
		}
		c.handleMessage(message)
	}
}

// allow counts one inbound message against the per-second budget
func (c *Client) allow(now time.Time) error {
	if now.After(c.msgResetAt) {
		c.msgCount = 0
		c.msgResetAt = now.Add(time.Second)
	}
	c.msgCount++
	if c.msgCount > maxMessagesPerSec {
		return ErrRateLimited
	}
	return nil
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Binary frames carry a marker byte from SendBinary
			var err error
			if len(message) > 0 && message[0] == binaryMarker {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		Log.Errorw("marshal", "err", err)
		return
	}
	c.enqueue(data)
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
func (c *Client) SendBinary(data []byte) {
	msg := make([]byte, len(data)+1)
	msg[0] = binaryMarker
	copy(msg[1:], data)
	c.enqueue(msg)
}

// enqueue never blocks; a slow client loses frames and a closed client
// drops them
func (c *Client) enqueue(data []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// closeSend closes the outbound channel once, ending WritePump
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// handleMessage routes incoming messages
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		Log.Debugw("bad envelope", "addr", c.remoteAddr, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandWait)
	defer cancel()

	switch env.T {
	case MsgJoin, MsgJoinGame:
		c.handleJoin(ctx, env.D)
	case MsgLeave, MsgLeaveLobby:
		c.handleLeave(ctx)
	case MsgReady, MsgPlayerReady:
		c.handleReady(ctx)
	case MsgInput:
		c.handleInput(env.D)
	case MsgAbility:
		c.handleAbility(ctx, env.D)
	}
}

func (c *Client) handleJoin(ctx context.Context, data json.RawMessage) {
	if c.PlayerID() != "" {
		return
	}
	var msg JoinMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
	}
	roomID, playerID, err := c.hub.rooms.Assign(ctx, msg.Username, c)
	if err != nil {
		Log.Warnw("assign failed", "addr", c.remoteAddr, "err", err)
		return
	}
	c.setPlayerID(playerID)
	Log.Debugw("client joined", "addr", c.remoteAddr, "room", roomID, "player", playerID)
}

func (c *Client) handleLeave(ctx context.Context) {
	id := c.PlayerID()
	if id == "" {
		return
	}
	if _, err := c.hub.rooms.Remove(ctx, id); err != nil && !errors.Is(err, ErrPlayerNotFound) {
		Log.Warnw("leave failed", "player", id, "err", err)
	}
	c.setPlayerID("")
}

func (c *Client) handleReady(ctx context.Context) {
	id := c.PlayerID()
	if id == "" {
		return
	}
	c.hub.rooms.Ready(ctx, id)
}

func (c *Client) handleInput(data json.RawMessage) {
	id := c.PlayerID()
	if id == "" {
		return
	}
	var msg InputMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.hub.rooms.Input(id, msg.VX, msg.VY)
}

func (c *Client) handleAbility(ctx context.Context, data json.RawMessage) {
	id := c.PlayerID()
	if id == "" {
		return
	}
	var msg AbilityMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.hub.rooms.Ability(ctx, id, msg.Name, msg.Params())
}
