package notifications

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client - одно websocket-подключение игрока. У игрока может быть несколько
// подключений одновременно (вкладки, устройства), все получают уведомления.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	playerID int

	mu       sync.Mutex
	isClosed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, playerID int) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 16),
		playerID: playerID,
	}
}

// Hub раздаёт уведомления по подключениям, сгруппированным по игроку.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	mu      sync.RWMutex
	players map[int]map[*Client]bool
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		players:    make(map[int]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.players[client.playerID]; !ok {
				h.players[client.playerID] = make(map[*Client]bool)
			}
			h.players[client.playerID][client] = true
			h.logger.Debug("notification client connected",
				slog.Int("player_id", client.playerID),
				slog.Int("connections", len(h.players[client.playerID])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if conns, ok := h.players[client.playerID]; ok {
				if _, okClient := conns[client]; okClient {
					client.mu.Lock()
					if !client.isClosed {
						close(client.send)
						client.isClosed = true
					}
					client.mu.Unlock()
					delete(conns, client)
					if len(conns) == 0 {
						delete(h.players, client.playerID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToPlayer доставляет сообщение во все живые подключения игрока.
// Переполненные каналы пропускаются, доставка best-effort.
func (h *Hub) SendToPlayer(playerID int, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.players[playerID]
	if !ok {
		return
	}
	for client := range conns {
		client.mu.Lock()
		if client.isClosed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- message:
		default:
			h.logger.Warn("notification channel full, dropping message",
				slog.Int("player_id", playerID))
		}
		client.mu.Unlock()
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// Входящие сообщения игнорируются, канал односторонний.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("notification client read error",
					slog.Int("player_id", c.playerID), slog.Any("error", err))
			}
			break
		}
	}
}

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

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Слипшиеся в канале сообщения уходят одним фреймом.
			n := len(c.send)
			for i := 0; i < n; i++ {
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
