package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys written by JWTAuth and RequestLogger.
const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxRequestID = "request_id"
)

// UserID returns the authenticated user id, or false for anonymous requests.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated role or "".
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// RequestID returns the id assigned by RequestLogger.
func RequestID(c echo.Context) string {
	id, _ := c.Get(ctxRequestID).(string)
	return id
}

// userKey identifies the caller for rate limit keys.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
