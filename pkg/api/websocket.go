package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans auction snapshot updates out to every connected /ws/auctions client.
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	mu         sync.RWMutex
}

// NewHub builds an empty hub; call Run in its own goroutine to start fanning out.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

// Run drives the hub's register/unregister/broadcast loop until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast marshals v and queues it for every connected client whose
// subscription (if any) includes at least one of v's auction ids.
func (h *Hub) Broadcast(update AuctionSnapshotUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		filtered := c.filter(update)
		if len(filtered.Auctions) == 0 && len(update.Auctions) > 0 {
			continue
		}
		payload, err := json.Marshal(filtered)
		if err != nil {
			continue
		}
		select {
		case c.send <- payload:
		default:
		}
	}
}

// wsClient is one connected /ws/auctions subscriber.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	subsMu sync.RWMutex
	subs   map[uint64]bool // empty means "subscribed to everything"
}

func (c *wsClient) filter(update AuctionSnapshotUpdate) AuctionSnapshotUpdate {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	if len(c.subs) == 0 {
		return update
	}
	out := update
	out.Auctions = make([]model.AuctionDetails, 0, len(update.Auctions))
	for _, a := range update.Auctions {
		if c.subs[a.AuctionID] {
			out.Auctions = append(out.Auctions, a)
		}
	}
	return out
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var req WSSubscribeRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			continue
		}

		c.subsMu.Lock()
		switch req.Op {
		case "subscribe":
			if len(req.AuctionIDs) == 0 {
				c.subs = map[uint64]bool{}
			} else {
				for _, id := range req.AuctionIDs {
					c.subs[id] = true
				}
			}
		case "unsubscribe":
			for _, id := range req.AuctionIDs {
				delete(c.subs, id)
			}
		}
		c.subsMu.Unlock()
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &wsClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
		subs: make(map[uint64]bool),
	}
	c.hub.register <- c

	go c.writePump()
	go c.readPump()
}
