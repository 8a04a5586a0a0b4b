package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/middleware"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/user"
)

// Handler exposes the engine over HTTP. Errors are returned to echo and
// rendered by the server's error handler. Every request and booking in a
// response has its parties expanded.
type Handler struct {
	engine *Engine
}

func NewHandler(e *Engine) *Handler {
	return &Handler{engine: e}
}

// Register mounts the routes. auth must resolve the caller.
func (h *Handler) Register(g *echo.Group, auth echo.MiddlewareFunc) {
	sr := g.Group("/service-requests", auth)
	sr.POST("/create", h.CreateRequest)
	sr.GET("/available", h.ListAvailable)
	sr.POST("/accept", h.SubmitOffer)
	sr.POST("/select-merchant", h.SelectMerchant)
	sr.GET("/customer/:id", h.ListCustomerRequests)
	sr.GET("/:id", h.GetRequest)

	b := g.Group("/bookings", auth)
	b.POST("/create", h.CreateBooking)
	b.GET("/user/:id", h.ListCustomerBookings)
	b.GET("/merchant/:id", h.ListMerchantBookings)
	b.PATCH("/status", h.UpdateBookingStatus)
	b.GET("/:id", h.GetBooking)

	g.GET("/services", h.Services)
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.Validationf("Invalid request body")
	}
	return nil
}

func (h *Handler) contacts() *user.Contacts {
	return user.NewContacts(h.engine.store)
}

func (h *Handler) request(c echo.Context, status int, r *model.ServiceRequest) error {
	v, err := PopulateRequest(c.Request().Context(), h.contacts(), r)
	if err != nil {
		return apperr.Wrap(err, "Failed to load request parties")
	}
	return c.JSON(status, v)
}

func (h *Handler) requests(c echo.Context, rs []*model.ServiceRequest) error {
	vs, err := PopulateRequests(c.Request().Context(), h.contacts(), rs)
	if err != nil {
		return apperr.Wrap(err, "Failed to load request parties")
	}
	return c.JSON(http.StatusOK, vs)
}

func (h *Handler) booking(c echo.Context, status int, b *model.Booking) error {
	v, err := PopulateBooking(c.Request().Context(), h.contacts(), b)
	if err != nil {
		return apperr.Wrap(err, "Failed to load booking parties")
	}
	return c.JSON(status, v)
}

func (h *Handler) bookings(c echo.Context, bs []*model.Booking) error {
	vs, err := PopulateBookings(c.Request().Context(), h.contacts(), bs)
	if err != nil {
		return apperr.Wrap(err, "Failed to load booking parties")
	}
	return c.JSON(http.StatusOK, vs)
}

func (h *Handler) CreateRequest(c echo.Context) error {
	var in CreateRequestInput
	if err := bind(c, &in); err != nil {
		return err
	}
	r, err := h.engine.CreateRequest(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return h.request(c, http.StatusCreated, r)
}

func (h *Handler) ListAvailable(c echo.Context) error {
	reqs, err := h.engine.ListAvailable(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return h.requests(c, reqs)
}

func (h *Handler) SubmitOffer(c echo.Context) error {
	var in OfferInput
	if err := bind(c, &in); err != nil {
		return err
	}
	r, err := h.engine.SubmitOffer(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return h.request(c, http.StatusOK, r)
}

func (h *Handler) SelectMerchant(c echo.Context) error {
	var in SelectInput
	if err := bind(c, &in); err != nil {
		return err
	}
	r, b, err := h.engine.SelectMerchant(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return err
	}
	ctx, contacts := c.Request().Context(), h.contacts()
	rv, err := PopulateRequest(ctx, contacts, r)
	if err != nil {
		return apperr.Wrap(err, "Failed to load request parties")
	}
	bv, err := PopulateBooking(ctx, contacts, b)
	if err != nil {
		return apperr.Wrap(err, "Failed to load booking parties")
	}
	return c.JSON(http.StatusOK, echo.Map{"serviceRequest": rv, "booking": bv})
}

func (h *Handler) ListCustomerRequests(c echo.Context) error {
	reqs, err := h.engine.ListCustomerRequests(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return h.requests(c, reqs)
}

func (h *Handler) GetRequest(c echo.Context) error {
	r, err := h.engine.GetRequest(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return h.request(c, http.StatusOK, r)
}

func (h *Handler) CreateBooking(c echo.Context) error {
	var in CreateBookingInput
	if err := bind(c, &in); err != nil {
		return err
	}
	b, err := h.engine.CreateBooking(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return h.booking(c, http.StatusCreated, b)
}

func (h *Handler) ListCustomerBookings(c echo.Context) error {
	bs, err := h.engine.ListCustomerBookings(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return h.bookings(c, bs)
}

func (h *Handler) ListMerchantBookings(c echo.Context) error {
	bs, err := h.engine.ListMerchantBookings(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return h.bookings(c, bs)
}

func (h *Handler) GetBooking(c echo.Context) error {
	b, err := h.engine.GetBooking(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return h.booking(c, http.StatusOK, b)
}

func (h *Handler) UpdateBookingStatus(c echo.Context) error {
	var in StatusInput
	if err := bind(c, &in); err != nil {
		return err
	}
	b, err := h.engine.UpdateBookingStatus(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return h.booking(c, http.StatusOK, b)
}

// Services returns the public trade catalog.
func (h *Handler) Services(c echo.Context) error {
	return c.JSON(http.StatusOK, Catalog())
}
