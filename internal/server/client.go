package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"StockTracker/internal/httpapi"
	"StockTracker/internal/model"
)

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type viewPref struct {
	Kind      model.ChartKind
	Timeframe int
}

// subscribeCommand selects the view a client receives.
type subscribeCommand struct {
	Kind      string `json:"kind"`
	Timeframe *int   `json:"timeframe"`
}

// Client is one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan *Message
	log  *zap.Logger

	mu   sync.Mutex
	view viewPref
}

func (c *Client) pref() viewPref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Client) setPref(p viewPref) {
	c.mu.Lock()
	c.view = p
	c.mu.Unlock()
}

func (s *Server) handleWebSocket(c *gin.Context) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return s.originAllowed(r.Header.Get("Origin")) },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan *Message, 16),
		log:  s.log,
		view: viewPref{Kind: defaultKind, Timeframe: defaultTimeframe},
	}
	if !s.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump applies view selections until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Info("websocket closed", zap.Error(err))
			}
			return
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var cmd subscribeCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.hub.respond(c, errorMessage(http.StatusBadRequest, "malformed view selection"))
		return
	}

	p := c.pref()
	if cmd.Kind != "" {
		p.Kind = model.ParseChartKind(cmd.Kind)
	}
	if cmd.Timeframe != nil {
		if *cmd.Timeframe <= 0 {
			c.hub.respond(c, errorMessage(http.StatusBadRequest, "timeframe must be a positive number of minutes"))
			return
		}
		p.Timeframe = *cmd.Timeframe
	}
	c.setPref(p)
	c.hub.respond(c, nil)
}

func errorMessage(code int, message string) *Message {
	e := httpapi.Error(code, message)
	return &Message{Type: "error", Error: &e}
}

// writePump is the only writer of the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
