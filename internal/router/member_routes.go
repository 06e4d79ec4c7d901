package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/practitioner-marketplace/internal/handler"
	"github.com/iliyamo/practitioner-marketplace/internal/middleware"
	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// RegisterSubscriptions registers the stream subscription purchase.  Any
// signed-in user may subscribe, practitioners included.
func RegisterSubscriptions(e *echo.Echo, s *handler.SubscriptionHandler, rateLimit echo.MiddlewareFunc, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMember, model.RolePractitioner),
	)
	g.POST("/subscriptions", s.Create, orPass(rateLimit))
}
