package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// Catalog is the reference data used by the editor's selection controls.
type Catalog interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListLocations(ctx context.Context, city string) ([]model.Location, error)
	ListSchedules(ctx context.Context, practitionerID uint64) ([]model.Schedule, error)
}

// LookupHandler serves the auxiliary list reads.  Each one is independent
// of editor sessions.
type LookupHandler struct {
	Catalog Catalog
}

func NewLookupHandler(cat Catalog) *LookupHandler { return &LookupHandler{Catalog: cat} }

func (h *LookupHandler) Categories(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Locations accepts an optional ?city= filter.
func (h *LookupHandler) Locations(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Catalog.ListLocations(ctx, strings.TrimSpace(c.QueryParam("city")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LookupHandler) Schedules(c echo.Context) error {
	pid, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Catalog.ListSchedules(ctx, pid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
