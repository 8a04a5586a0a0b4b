package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Sajeel041/FIX-POINT/internal/config"
)

func TestMiddlewareLogsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(Middleware(zap.New(core)))
	e.GET("/ping", func(c echo.Context) error {
		assert.NotNil(t, FromEcho(c))
		return c.String(http.StatusOK, "pong")
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("exploded")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "HTTP request completed", entries[0].Message)
	assert.Equal(t, "/ping", entries[0].ContextMap()["path"])
	assert.Equal(t, "HTTP request failed", entries[1].Message)
	assert.EqualValues(t, http.StatusInternalServerError, entries[1].ContextMap()["status"])
}

func TestInitLoggerWithFile(t *testing.T) {
	cfg := &config.Config{
		ServiceName: "fixpoint-test",
		Server:      config.ServerConfig{Env: "production"},
		Log: config.LogConfig{
			Level:        "debug",
			File:         filepath.Join(t.TempDir(), "api.log"),
			RotationTime: time.Hour,
			MaxAge:       24 * time.Hour,
		},
	}
	l, err := InitLogger(cfg)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))
	assert.Same(t, l, GetLogger())
}
