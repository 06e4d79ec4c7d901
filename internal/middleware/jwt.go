// Package middleware holds the echo middleware shared by all route groups.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/practitioner-marketplace/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the user id (uint64)
// and role in the echo context under "user_id" and "role".
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			id, _ := claims.UserID()
			c.Set(ctxUserID, id)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}

// OptionalJWT is like JWTAuth but lets anonymous requests through.  A
// present but invalid token is still rejected.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	auth := JWTAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withAuth := auth(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			return withAuth(c)
		}
	}
}
