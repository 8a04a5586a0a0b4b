package logger

import (
	"os"
	"time"

	"github.com/labstack/echo/v4"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Sajeel041/FIX-POINT/internal/config"
)

const RequestIDKey = "X-Request-ID"

var log *zap.Logger

// InitLogger builds the process logger and installs it as the zap global.
// Production logs are JSON, development logs are colored console lines. When
// a log file is configured the same entries are also written, as JSON, to a
// time-rotated file.
func InitLogger(cfg *config.Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	jsonEncoder := zap.NewProductionEncoderConfig()
	jsonEncoder.TimeKey = "time"
	jsonEncoder.EncodeTime = zapcore.ISO8601TimeEncoder

	var stdout zapcore.Encoder
	if cfg.IsProduction() {
		stdout = zapcore.NewJSONEncoder(jsonEncoder)
	} else {
		dev := zap.NewDevelopmentEncoderConfig()
		dev.EncodeLevel = zapcore.CapitalColorLevelEncoder
		dev.EncodeTime = zapcore.ISO8601TimeEncoder
		stdout = zapcore.NewConsoleEncoder(dev)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stdout, zapcore.Lock(os.Stdout), level),
	}

	if cfg.Log.File != "" {
		writer, err := rotatelogs.New(
			cfg.Log.File+".%Y%m%d%H%M",
			rotatelogs.WithLinkName(cfg.Log.File),
			rotatelogs.WithRotationTime(cfg.Log.RotationTime),
			rotatelogs.WithMaxAge(cfg.Log.MaxAge),
		)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonEncoder), zapcore.AddSync(writer), level))
	}

	log = zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", cfg.ServiceName), zap.String("environment", cfg.Server.Env)),
	)
	zap.ReplaceGlobals(log)

	log.Info("Logger initialized", zap.String("level", level.String()))
	return log, nil
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if log == nil {
		return zap.L()
	}
	return log
}

// FromEcho returns the request scoped logger, falling back to the global one.
func FromEcho(c echo.Context) *zap.Logger {
	if l, ok := c.Get("logger").(*zap.Logger); ok {
		return l
	}
	requestID, _ := c.Get(RequestIDKey).(string)
	if requestID == "" {
		requestID = c.Request().Header.Get(RequestIDKey)
	}
	if requestID == "" {
		return GetLogger()
	}
	return GetLogger().With(zap.String("request_id", requestID))
}

// Middleware returns an Echo middleware that logs HTTP requests
func Middleware(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID, _ := c.Get(RequestIDKey).(string)
			ctxLogger := base.With(zap.String("request_id", requestID))
			c.Set("logger", ctxLogger)

			err := next(c)
			if err != nil {
				// let the error handler write the status before it is logged
				c.Error(err)
			}

			fields := []zapcore.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			if uid, ok := c.Get("user_id").(string); ok && uid != "" {
				fields = append(fields, zap.String("user_id", uid))
			}

			switch status := c.Response().Status; {
			case status >= 500:
				if err != nil {
					fields = append(fields, zap.Error(err))
				}
				ctxLogger.Error("HTTP request failed", fields...)
			case status >= 400:
				ctxLogger.Warn("HTTP request rejected", fields...)
			default:
				ctxLogger.Info("HTTP request completed", fields...)
			}
			return nil
		}
	}
}
