package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 2048
	sendBufSize       = 256
	maxMessagesPerSec = 60
)

// Client represents a WebSocket connection
type Client struct {
	game       *Game
	limiter    *ConnLimiter
	conn       *websocket.Conn
	send       chan []byte
	playerID   string
	remoteAddr string
	binary     bool // client asked for msgpack state frames
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(game *Game, limiter *ConnLimiter, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		game:       game,
		limiter:    limiter,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection. A closing socket,
// graceful or not, ends in the same place: the player is removed and the
// winner check re-runs.
func (c *Client) ReadPump() {
	defer func() {
		c.limiter.TrackDisconnect(c.remoteAddr)
		if c.playerID != "" {
			c.game.RemovePlayer(c.playerID)
		}
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
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
			// 0xFF prefix marks a binary frame (msgpack state)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
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
		log.Printf("marshal error: %v", err)
		return
	}
	c.sendRaw(data)
}

// SendStateFrame sends the per-tick snapshot, msgpack-encoded when the
// client asked for binary frames at join.
func (c *Client) SendStateFrame(s *StateMsg) {
	if c.binary {
		data, err := msgpack.Marshal(s)
		if err != nil {
			return
		}
		buf := make([]byte, len(data)+1)
		buf[0] = 0xFF
		copy(buf[1:], data)
		c.sendRaw(buf)
		return
	}
	c.SendJSON(Envelope{T: MsgState, Data: s})
}

// sendRaw enqueues bytes without blocking; a slow client drops frames
func (c *Client) sendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}

// handleMessage routes incoming messages. Malformed input is dropped
// silently; it never crashes the connection or the loop.
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}

	switch env.T {
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgMove:
		c.handleMove(env.D)
	case MsgShoot:
		c.handleShoot()
	case MsgSpectate:
		c.handleSpectate(env.D)
	}
}

func (c *Client) handleJoin(data json.RawMessage) {
	if c.playerID != "" {
		return // already joined
	}
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	c.binary = msg.Binary
	player, token := c.game.AddPlayer(msg.Name, msg.Character, msg.Token, c)
	if player == nil {
		c.SendJSON(Envelope{T: MsgFlavor, Data: FlavorMsg{Text: "Arena is full, try again soon"}})
		return
	}
	c.playerID = player.ID

	c.SendJSON(Envelope{T: MsgJoined, Data: c.game.JoinSnapshot(player, token)})
	c.game.AnnounceJoin(player)
}

func (c *Client) handleMove(data json.RawMessage) {
	if c.playerID == "" {
		return
	}
	var msg MoveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if ack, ok := c.game.HandleMove(c.playerID, msg); ok {
		c.SendJSON(Envelope{T: MsgAck, Data: ack})
	}
}

func (c *Client) handleShoot() {
	if c.playerID == "" {
		return
	}
	c.game.HandleShoot(c.playerID)
}

func (c *Client) handleSpectate(data json.RawMessage) {
	if c.playerID == "" {
		return
	}
	var msg SpectateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.game.HandleSpectate(c.playerID, msg.TargetID)
}
