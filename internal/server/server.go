// Package server assembles the echo application: middleware, validation,
// error rendering and the routes of every feature package.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Sajeel041/FIX-POINT/internal/auth"
	"github.com/Sajeel041/FIX-POINT/internal/config"
	"github.com/Sajeel041/FIX-POINT/internal/logger"
	"github.com/Sajeel041/FIX-POINT/internal/marketplace"
	"github.com/Sajeel041/FIX-POINT/internal/merchant"
	"github.com/Sajeel041/FIX-POINT/internal/messaging"
	"github.com/Sajeel041/FIX-POINT/internal/metrics"
	appmw "github.com/Sajeel041/FIX-POINT/internal/middleware"
	"github.com/Sajeel041/FIX-POINT/internal/store"
	"github.com/Sajeel041/FIX-POINT/internal/user"
	"github.com/Sajeel041/FIX-POINT/internal/utils"
)

// Deps are the collaborators the routes are built from. Hub is optional.
type Deps struct {
	Config      *config.Config
	Store       store.Store
	Tokens      *utils.TokenManager
	Engine      *marketplace.Engine
	Chat        *messaging.Service
	Hub         *messaging.Hub
	AuthOptions []auth.Option
	Log         *zap.Logger
}

func New(d Deps) *echo.Echo {
	cfg := d.Config
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = appmw.NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
	e.Use(appmw.RequestID)
	if cfg.Metrics.Enabled {
		e.Use(metrics.HTTPMetrics(cfg.ServiceName))
	}
	e.Use(logger.Middleware(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, logger.RequestIDKey},
		ExposeHeaders: []string{logger.RequestIDKey},
	}))

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": cfg.ServiceName})
	})
	e.GET("/health", health)
	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, metrics.Handler())
	}

	api := e.Group(cfg.Server.APIPrefix)
	api.GET("/health", health)
	api.GET("/ready", ready(d.Store))

	authn := appmw.Authenticate(d.Tokens, d.Store)
	auth.NewHandler(d.Store, d.Tokens, d.AuthOptions...).Register(api, authn, authLimiter(cfg.Server.AuthRateLimit))
	user.NewHandler(d.Store).Register(api, authn)
	merchant.NewHandler(d.Store).Register(api, authn)
	marketplace.NewHandler(d.Engine).Register(api, authn)
	messaging.NewHandler(d.Chat, d.Hub).Register(api, authn)

	return e
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "OK", "message": "FixPoint API is running"})
}

func ready(s store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			logger.FromEcho(c).Warn("readiness check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "store unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	}
}

// authLimiter throttles credential endpoints per client IP. A rate of zero
// or less disables it.
func authLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(perSecond)))
}
