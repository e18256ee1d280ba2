package server

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"StockTracker/internal/display"
	"StockTracker/internal/model"
	"StockTracker/internal/window"
)

const (
	defaultKind      = model.ChartArea
	defaultTimeframe = 30
)

// ValueRange is the min and max of the projected values.
type ValueRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ViewResponse is a projected view plus what a renderer needs to set its axes.
type ViewResponse struct {
	window.View
	TimeframeLabel string      `json:"timeframeLabel"`
	Range          *ValueRange `json:"range,omitempty"`
}

// Message is one frame pushed to a WebSocket client.
type Message struct {
	Type      string            `json:"type"`
	View      *ViewResponse     `json:"view,omitempty"`
	Summaries []display.Summary `json:"summaries,omitempty"`
	LastTick  int64             `json:"lastTick,omitempty"`
	Error     *model.APIError   `json:"error,omitempty"`
}

type viewSource interface {
	Project(kind model.ChartKind, timeframe int) window.View
	Summaries() []display.Summary
	LastTick() time.Time
}

func buildView(src viewSource, p viewPref) *ViewResponse {
	v := &ViewResponse{
		View:           src.Project(p.Kind, p.Timeframe),
		TimeframeLabel: display.TimeframeLabel(p.Timeframe),
	}
	if lo, hi, ok := window.Bounds(v.Series); ok {
		v.Range = &ValueRange{Low: lo, High: hi}
	}
	return v
}

type reply struct {
	client *Client
	msg    *Message
}

// Hub owns the set of WebSocket clients. Every client gets its own view of each update.
type Hub struct {
	src        viewSource
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	direct     chan reply
	updates    chan struct{}
	done       chan struct{}
	count      atomic.Int64
	log        *zap.Logger
}

func NewHub(src viewSource, log *zap.Logger) *Hub {
	return &Hub{
		src:        src,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan reply),
		updates:    make(chan struct{}, 1),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Connections returns the number of connected clients.
func (h *Hub) Connections() int { return int(h.count.Load()) }

// Notify schedules a push to all clients. Bursts of notifications coalesce.
func (h *Hub) Notify() {
	select {
	case h.updates <- struct{}{}:
	default:
	}
}

// Run is the hub loop. It returns when ctx is done, closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Add(1)
			h.send(c, h.message(c.pref()))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}

		case r := <-h.direct:
			if _, ok := h.clients[r.client]; !ok {
				continue
			}
			if r.msg == nil {
				r.msg = h.message(r.client.pref())
			}
			h.send(r.client, r.msg)

		case <-h.updates:
			cache := make(map[viewPref]*Message)
			for c := range h.clients {
				p := c.pref()
				m, ok := cache[p]
				if !ok {
					m = h.message(p)
					cache[p] = m
				}
				h.send(c, m)
			}
		}
	}
}

func (h *Hub) message(p viewPref) *Message {
	m := &Message{
		Type:      "update",
		View:      buildView(h.src, p),
		Summaries: h.src.Summaries(),
	}
	if lt := h.src.LastTick(); !lt.IsZero() {
		m.LastTick = lt.UnixMilli()
	}
	return m
}

// send never blocks the hub. A client that cannot keep up is dropped.
func (h *Hub) send(c *Client, m *Message) {
	select {
	case c.send <- m:
	default:
		h.log.Warn("websocket client too slow, dropping")
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// respond sends msg to one client, or a fresh view when msg is nil.
func (h *Hub) respond(c *Client, msg *Message) {
	select {
	case h.direct <- reply{client: c, msg: msg}:
	case <-h.done:
	}
}
