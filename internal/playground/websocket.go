package playground

import (
	"context"
	"net/http"
	"time"

	"cafeassist/internal/assistant"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatConnection is one customer's socket and the conversation it carries.
// Only the read pump touches state, so turns are handled one at a time.
type ChatConnection struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	server *Server
	actor  assistant.Actor
	state  assistant.State
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// handleWebSocket upgrades the request and starts the connection's pumps
func (s *Server) handleWebSocket(c *gin.Context) {
	actor, ok := s.resolve(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	chat := &ChatConnection{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, 16),
		server: s,
		actor:  actor,
		state:  assistant.NewState(),
		ctx:    ctx,
		cancel: cancel,
		logger: s.logger.With(zap.String("connection", id), zap.Bool("authenticated", actor.Authenticated)),
	}
	s.monitor.Add("ws_connections_open", 1)
	chat.logger.Debug("chat connection opened")

	go chat.writePump()
	go chat.readPump()
}

// readPump handles frames from the client in order until the socket closes
func (c *ChatConnection) readPump() {
	defer func() {
		c.cancel()
		close(c.send)
		c.server.monitor.Add("ws_connections_open", -1)
		c.logger.Debug("chat connection closed")
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
				c.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		c.handleFrame(message)
	}
}

// writePump sends queued frames and keeps the connection alive with pings
func (c *ChatConnection) writePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// queue hands a frame to the write pump, dropping it if the client is not reading
func (c *ChatConnection) queue(data []byte) {
	select {
	case c.send <- data:
	default:
		c.logger.Warn("websocket buffer full, dropping frame")
	}
}
