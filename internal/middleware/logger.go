package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = echo.HeaderXRequestID

// RequestLogger assigns a request id (reusing the client's when present)
// and logs one line per request.  Health checks are not logged.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := req.Header.Get(HeaderRequestID)
			if rid == "" {
				rid = uuid.New().String()
			}
			c.Set(ctxRequestID, rid)
			c.Response().Header().Set(HeaderRequestID, rid)

			err := next(c)
			if err != nil {
				// Let echo's error handler write the response so the
				// logged status is the one the client sees.
				c.Error(err)
			}
			if c.Path() == "/healthz" {
				return nil
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("request_id", rid),
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.String("uri", req.RequestURI),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("client_ip", c.RealIP()),
			}
			if id, ok := UserID(c); ok {
				fields = append(fields, zap.Uint64("user_id", id))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}

// Recover turns a handler panic into a 500 and logs the stack.
func Recover(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered",
						zap.String("request_id", RequestID(c)),
						zap.String("path", c.Path()),
						zap.String("panic", fmt.Sprint(r)),
						zap.ByteString("stack", debug.Stack()))
					err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
				}
			}()
			return next(c)
		}
	}
}
