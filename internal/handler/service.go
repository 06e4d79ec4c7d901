package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/practitioner-marketplace/internal/editor"
	"github.com/iliyamo/practitioner-marketplace/internal/middleware"
	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// ServiceStore creates services and lists a practitioner's services.
type ServiceStore interface {
	Create(ctx context.Context, s *model.Service) error
	ListSummariesByOwner(ctx context.Context, ownerID uint64) ([]model.ServiceSummary, error)
}

// ServiceHandler serves the entity API.  Partial updates go through the
// same gateway as editor saves, so they share its per-service ordering and
// cache invalidation.
type ServiceHandler struct {
	Store   ServiceStore
	Reader  editor.ServiceReader
	Gateway editor.Gateway
	Cache   editor.Invalidator
}

func NewServiceHandler(store ServiceStore, reader editor.ServiceReader, gw editor.Gateway, inv editor.Invalidator) *ServiceHandler {
	return &ServiceHandler{Store: store, Reader: reader, Gateway: gw, Cache: inv}
}

type createServiceReq struct {
	Subtype     string `json:"subtype"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// visibleTo reports whether a service may be shown to viewer (0 when
// anonymous).  Owners always see their services; everyone else only sees
// active, non-private ones.
func visibleTo(s *model.Service, viewer uint64) bool {
	if viewer != 0 && viewer == s.OwnerID {
		return true
	}
	return s.Status == model.StatusActive && s.Visibility != model.VisibilityPrivate
}

// Get returns a service by id.
func (h *ServiceHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	svc, err := h.Reader.GetService(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	viewer, _ := middleware.UserID(c)
	if !visibleTo(svc, viewer) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	return c.JSON(http.StatusOK, svc)
}

// Create inserts a draft service owned by the caller.
func (h *ServiceHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req createServiceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	svc := &model.Service{
		OwnerID:     uid,
		Subtype:     strings.ToLower(strings.TrimSpace(req.Subtype)),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if svc.Subtype == "" {
		svc.Subtype = model.SubtypeSession
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Store.Create(ctx, svc); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, svc)
}

// Patch applies a sparse field set.
func (h *ServiceHandler) Patch(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	// Bind would also copy path params into a map destination.
	var patch map[string]any
	if err := (&echo.DefaultBinder{}).BindBody(c, &patch); err != nil || len(patch) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "non-empty JSON object required"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	scope := editor.Scope{User: editor.Principal{UserID: uid, Role: middleware.Role(c)}, Cache: h.Cache}
	svc, err := h.Gateway.Save(ctx, scope, id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, svc)
}

// ListByPractitioner lists the services of :id.  Other viewers only see the
// ones that are publicly listed.
func (h *ServiceHandler) ListByPractitioner(c echo.Context) error {
	pid, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	all, err := h.Store.ListSummariesByOwner(ctx, pid)
	if err != nil {
		return respondError(c, err)
	}
	if viewer, _ := middleware.UserID(c); viewer == pid {
		return c.JSON(http.StatusOK, all)
	}
	out := make([]model.ServiceSummary, 0, len(all))
	for _, s := range all {
		if s.Status == model.StatusActive {
			out = append(out, s)
		}
	}
	return c.JSON(http.StatusOK, out)
}
