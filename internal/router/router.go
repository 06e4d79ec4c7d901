// Package router registers the HTTP routes.  Each Register function owns
// one audience: public, authenticated users, practitioners and members.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/practitioner-marketplace/internal/handler"
	"github.com/iliyamo/practitioner-marketplace/internal/middleware"
)

// RegisterRoutes registers the probes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, sessions interface{ Count() int }) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db, sessions))
}

// RegisterAuth registers token issuance under /v1/auth.  Logout and me
// need a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	authed := g.Group("", middleware.JWTAuth(jwtSecret))
	authed.POST("/logout", a.Logout)
	authed.GET("/me", a.Me)
}

// Public groups the handlers reachable without an account.
type Public struct {
	Services *handler.ServiceHandler
	Lookups  *handler.LookupHandler
	Items    *handler.ItemHandler
	// Cache is applied to reference data reads.
	Cache echo.MiddlewareFunc
}

// RegisterPublic registers the browse, lookup and pricing preview
// endpoints.  Service reads accept an optional token so owners can see
// their drafts.
func RegisterPublic(e *echo.Echo, p Public, jwtSecret string) {
	g := e.Group("/v1")

	lookups := g.Group("", orPass(p.Cache))
	lookups.GET("/categories", p.Lookups.Categories)
	lookups.GET("/locations", p.Lookups.Locations)
	lookups.GET("/practitioners/:id/schedules", p.Lookups.Schedules)

	viewer := g.Group("", middleware.OptionalJWT(jwtSecret))
	viewer.GET("/services/:id", p.Services.Get)
	viewer.GET("/services/:id/items/:kind", p.Items.List)
	viewer.GET("/practitioners/:id/services", p.Services.ListByPractitioner)

	pricing := g.Group("/pricing")
	pricing.POST("/bundle", handler.BundlePreview)
	pricing.POST("/package", handler.PackagePreview)
	pricing.POST("/revenue-share", handler.RevenueSharePreview)
}

// orPass substitutes a pass-through for an unset optional middleware.
func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}
