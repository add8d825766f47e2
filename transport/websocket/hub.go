package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/dogtown/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Spectator feed, open to any origin.
		return true
	},
}

// Message is the frame pushed to spectators after each tick.
type Message struct {
	MapID string             `json:"mapId"`
	Event string             `json:"event,omitempty"`
	State *service.GameState `json:"state,omitempty"`
}

// Client represents one spectator connection watching a map.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	mapID string
}

// Hub maintains the set of spectators grouped by map id.
type Hub struct {
	mu   sync.Mutex
	maps map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		maps:       make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// ServeWS upgrades the request and attaches the spectator to a map feed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, mapID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 256),
		mapID: mapID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastToMap fans a state update out to every spectator of the map.
// Clients whose send buffer is full are dropped, not awaited.
func (h *Hub) BroadcastToMap(mapID string, state *service.GameState) {
	message := &Message{
		MapID: mapID,
		Event: "state_update",
		State: state,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal WebSocket message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.maps[mapID] {
		select {
		case client.send <- data:
		default:
			h.dropClientLocked(client)
		}
	}
}

// ActiveMaps returns the ids of maps that currently have spectators.
func (h *Hub) ActiveMaps() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.maps))
	for id := range h.maps {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maps[client.mapID] == nil {
		h.maps[client.mapID] = make(map[*Client]bool)
	}
	h.maps[client.mapID][client] = true

	log.Printf("Spectator joined map %s (total: %d)",
		client.mapID, len(h.maps[client.mapID]))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropClientLocked(client)
}

func (h *Hub) dropClientLocked(client *Client) {
	clients, ok := h.maps[client.mapID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.maps, client.mapID)
	}

	log.Printf("Spectator left map %s (remaining: %d)",
		client.mapID, len(clients))
}

// readPump discards inbound frames; the feed is one-way. It exists to keep
// the connection alive and to notice the peer going away.
func (c *Client) readPump() {
	defer func() {
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
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
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
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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
