package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/practitioner-marketplace/internal/handler"
	"github.com/iliyamo/practitioner-marketplace/internal/middleware"
	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// Practitioner groups the handlers behind the PRACTITIONER role.
type Practitioner struct {
	Editor   *handler.EditorHandler
	Services *handler.ServiceHandler
	Items    *handler.ItemHandler
	// RateLimit guards the write paths.
	RateLimit echo.MiddlewareFunc
}

// RegisterPractitioner registers service management and editor sessions
// under /v1.  All routes require a valid JWT and the PRACTITIONER role.
func RegisterPractitioner(e *echo.Echo, p Practitioner, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RolePractitioner),
	)
	limit := orPass(p.RateLimit)

	// ---- Services ----
	g.POST("/services", p.Services.Create, limit)
	g.PATCH("/services/:id", p.Services.Patch, limit)

	// ---- Items ----
	// Items are written immediately, outside editor drafts.
	g.POST("/services/:id/items/:kind", p.Items.Create, limit)
	g.DELETE("/services/:id/items/:kind/:item_id", p.Items.Delete, limit)

	// ---- Editor sessions ----
	g.POST("/services/:id/editor", p.Editor.Open)
	ed := g.Group("/editor/:sid")
	ed.GET("", p.Editor.Get)
	ed.DELETE("", p.Editor.Close)
	ed.POST("/retry", p.Editor.Retry)
	ed.PUT("/sections/:section", p.Editor.UpdateSection)
	ed.POST("/sections/:section/toggle", p.Editor.Toggle)
	ed.POST("/scroll", p.Editor.Scroll)
	ed.POST("/sections/:section/save", p.Editor.SaveSection, limit)
	ed.POST("/save", p.Editor.SaveAll, limit)
}
