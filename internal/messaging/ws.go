package messaging

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/logger"
	"github.com/Sajeel041/FIX-POINT/internal/middleware"
)

const (
	EventMessageNew    = "message_new"
	EventMessagesRead  = "messages_read"
	EventPresenceJoin  = "presence_join"
	EventPresenceLeave = "presence_leave"

	writeWait = 10 * time.Second
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type ReadReceipt struct {
	BookingID string    `json:"bookingId"`
	ReaderID  string    `json:"readerId"`
	Count     int64     `json:"count"`
	ReadAt    time.Time `json:"readAt"`
}

type room struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// Hub fans events out to the websocket clients watching a booking thread.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
	log   *zap.Logger

	upgrader websocket.Upgrader
}

func NewHub(log *zap.Logger, allowedOrigins []string) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms: make(map[string]*room),
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// join registers c under h.mu so a concurrent leave cannot drop the room
// between its lookup and the insert.
func (h *Hub) join(bookingID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[bookingID]
	if !ok {
		r = &room{clients: make(map[*websocket.Conn]struct{})}
		h.rooms[bookingID] = r
	}
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()
}

func (h *Hub) leave(bookingID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[bookingID]
	if !ok {
		return
	}
	r.mu.Lock()
	delete(r.clients, c)
	empty := len(r.clients) == 0
	r.mu.Unlock()
	if empty {
		delete(h.rooms, bookingID)
	}
}

// Clients returns how many connections watch bookingID.
func (h *Hub) Clients(bookingID string) int {
	h.mu.Lock()
	r, ok := h.rooms[bookingID]
	h.mu.Unlock()
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Broadcast sends evt to every client of bookingID. Clients that fail to
// receive it are dropped; they fall back to polling.
func (h *Hub) Broadcast(bookingID string, evt Event) {
	h.mu.Lock()
	r, ok := h.rooms[bookingID]
	h.mu.Unlock()
	if !ok {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		h.log.Error("encode ws event", zap.String("type", evt.Type), zap.Error(err))
		return
	}

	var dead []*websocket.Conn
	r.mu.Lock()
	for c := range r.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			dead = append(dead, c)
		}
	}
	r.mu.Unlock()
	for _, c := range dead {
		h.leave(bookingID, c)
		_ = c.Close()
	}
}

// Serve upgrades a booking party to a websocket on the booking's thread. The
// connection only receives events; anything the client sends is discarded.
func (h *Hub) Serve(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := middleware.CurrentUser(c)
		b, err := svc.Authorize(c.Request().Context(), user, c.Param("bookingId"), "view")
		if err != nil {
			return err
		}

		ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// the upgrader already wrote the HTTP error
			logger.FromEcho(c).Warn("websocket upgrade failed", zap.Error(err))
			return nil
		}

		h.join(b.ID, ws)
		h.Broadcast(b.ID, Event{Type: EventPresenceJoin, Data: echo.Map{"userId": user.ID}})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}
		h.leave(b.ID, ws)
		_ = ws.Close()
		h.Broadcast(b.ID, Event{Type: EventPresenceLeave, Data: echo.Map{"userId": user.ID}})
		return nil
	}
}
