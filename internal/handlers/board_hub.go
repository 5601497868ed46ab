package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bogdanmosica/montessori-app-sub002/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dev setting, the reverse proxy enforces origins in production
	},
}

// GlobalBoardHub is the single hub instance for the application.
var GlobalBoardHub = NewBoardHub()

// BoardEvent is pushed to every connected staff member of a school when the
// lesson progress board changes, so open boards reflect moves and locks
// without polling.
type BoardEvent struct {
	Type   string                      `json:"type"` // cardLocked, cardUnlocked, cardsMoved
	CardID uint                        `json:"cardId,omitempty"`
	Card   *models.LessonProgressCard  `json:"card,omitempty"`
	Cards  []models.LessonProgressCard `json:"cards,omitempty"`
}

type boardClient struct {
	hub      *BoardHub
	conn     *websocket.Conn
	send     chan []byte
	id       string
	userID   uint
	schoolID uint
}

// BoardHub tracks connected board viewers grouped by school.
type BoardHub struct {
	clients    map[string]*boardClient
	register   chan *boardClient
	unregister chan *boardClient
	mu         sync.Mutex
}

func NewBoardHub() *BoardHub {
	return &BoardHub{
		clients:    make(map[string]*boardClient),
		register:   make(chan *boardClient),
		unregister: make(chan *boardClient),
	}
}

func (h *BoardHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			slog.Info("Board viewer connected", "user_id", client.userID, "school_id", client.schoolID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Info("Board viewer disconnected", "user_id", client.userID)
		}
	}
}

// BroadcastBoardEvent fans an event out to every viewer of the given school.
// Slow consumers are dropped rather than blocking the caller.
func (h *BoardHub) BroadcastBoardEvent(schoolID uint, event BoardEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal board event", "error", err, "type", event.Type)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		if client.schoolID != schoolID {
			continue
		}
		select {
		case client.send <- data:
		default:
			delete(h.clients, id)
			close(client.send)
		}
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

func (c *boardClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		// Viewers only listen; any inbound payload is discarded.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *boardClient) writePump() {
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

// BoardWSEndpoint upgrades the connection and registers the caller as a
// board viewer for their school.
func BoardWSEndpoint(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Websocket upgrade failed", "error", err)
		return
	}

	client := &boardClient{
		hub:      GlobalBoardHub,
		conn:     conn,
		send:     make(chan []byte, 16),
		id:       uuid.NewString(),
		userID:   currentUserID(c),
		schoolID: currentSchoolID(c),
	}
	GlobalBoardHub.register <- client

	go client.writePump()
	go client.readPump()
}
