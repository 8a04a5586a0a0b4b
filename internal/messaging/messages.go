package messaging

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/marketplace"
	"github.com/Sajeel041/FIX-POINT/internal/middleware"
	"github.com/Sajeel041/FIX-POINT/internal/user"
)

type Handler struct {
	svc *Service
	hub *Hub
}

// NewHandler serves the chat routes. hub may be nil to disable push.
func NewHandler(svc *Service, hub *Hub) *Handler {
	return &Handler{svc: svc, hub: hub}
}

func (h *Handler) Register(g *echo.Group, auth echo.MiddlewareFunc) {
	chat := g.Group("/chat", auth)
	chat.POST("/send", h.SendMessage)
	chat.GET("/booking/:bookingId", h.ListMessages)
	chat.GET("/unread-count", h.UnreadCount)
	chat.GET("/latest-unread", h.LatestUnread)
	if h.hub != nil {
		chat.GET("/booking/:bookingId/ws", h.hub.Serve(h.svc))
	}
}

// SendMessage - a booking party posts to the booking thread
func (h *Handler) SendMessage(c echo.Context) error {
	var body struct {
		BookingID string `json:"bookingId"`
		Message   string `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.Validationf("Invalid request body")
	}
	ctx := c.Request().Context()
	m, err := h.svc.Send(ctx, middleware.CurrentUser(c), body.BookingID, body.Message)
	if err != nil {
		return err
	}
	views, err := h.svc.Populate(ctx, m)
	if err != nil {
		return apperr.Wrap(err, "Failed to load message parties")
	}
	return c.JSON(http.StatusCreated, views[0])
}

// ListMessages - the thread, oldest first; marks the caller's messages read
func (h *Handler) ListMessages(c echo.Context) error {
	ctx := c.Request().Context()
	msgs, err := h.svc.List(ctx, middleware.CurrentUser(c), c.Param("bookingId"))
	if err != nil {
		return err
	}
	views, err := h.svc.Populate(ctx, msgs...)
	if err != nil {
		return apperr.Wrap(err, "Failed to load message parties")
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) UnreadCount(c echo.Context) error {
	n, err := h.svc.UnreadCount(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"unreadCount": n})
}

func (h *Handler) LatestUnread(c echo.Context) error {
	ctx := c.Request().Context()
	m, b, err := h.svc.LatestUnread(ctx, middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	if m == nil {
		return c.JSON(http.StatusOK, echo.Map{"message": nil})
	}
	contacts := user.NewContacts(h.svc.store)
	mv, err := populate(ctx, contacts, m)
	if err != nil {
		return apperr.Wrap(err, "Failed to load message parties")
	}
	out := echo.Map{"message": mv, "booking": nil}
	if b != nil {
		bv, err := marketplace.PopulateBooking(ctx, contacts, b)
		if err != nil {
			return apperr.Wrap(err, "Failed to load booking parties")
		}
		out["booking"] = bv
	}
	return c.JSON(http.StatusOK, out)
}
