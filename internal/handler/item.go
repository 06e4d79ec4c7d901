package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/practitioner-marketplace/internal/cache"
	"github.com/iliyamo/practitioner-marketplace/internal/editor"
	"github.com/iliyamo/practitioner-marketplace/internal/model"
	"github.com/iliyamo/practitioner-marketplace/internal/queue"
)

// ItemStore manages the child collections of a service.
type ItemStore interface {
	List(ctx context.Context, serviceID uint64, kind string) ([]model.ServiceItem, error)
	Create(ctx context.Context, ownerID uint64, it *model.ServiceItem) error
	Delete(ctx context.Context, ownerID, serviceID uint64, kind string, itemID uint64) error
}

// ItemHandler serves sub-resource CRUD.  These writes take effect
// immediately and never touch editor drafts.
type ItemHandler struct {
	Items  ItemStore
	Cache  editor.Invalidator
	Events editor.ActivityPublisher
	Log    *zap.Logger
}

func NewItemHandler(items ItemStore, inv editor.Invalidator, events editor.ActivityPublisher, log *zap.Logger) *ItemHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ItemHandler{Items: items, Cache: inv, Events: events, Log: log}
}

type createItemReq struct {
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	URL      string     `json:"url"`
	StartsAt *time.Time `json:"starts_at"`
}

func itemKind(c echo.Context) (string, error) {
	kind := c.Param("kind")
	if !model.ValidItemKind(kind) {
		return "", echo.NewHTTPError(http.StatusNotFound, "unknown item kind")
	}
	return kind, nil
}

func (h *ItemHandler) List(c echo.Context) error {
	sid, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	kind, err := itemKind(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Items.List(ctx, sid, kind)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Create appends an item.  Sessions need starts_at and resources need a url.
func (h *ItemHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	sid, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	kind, err := itemKind(c)
	if err != nil {
		return respondError(c, err)
	}
	var req createItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	it := &model.ServiceItem{
		ServiceID: sid,
		Kind:      kind,
		Title:     strings.TrimSpace(req.Title),
		Body:      strings.TrimSpace(req.Body),
		URL:       strings.TrimSpace(req.URL),
		StartsAt:  req.StartsAt,
	}
	switch {
	case it.Title == "":
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "title required"})
	case kind == model.ItemSession && it.StartsAt == nil:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "starts_at required for sessions"})
	case kind == model.ItemResource && it.URL == "":
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "url required for resources"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Items.Create(ctx, uid, it); err != nil {
		return respondError(c, err)
	}
	h.changed(ctx, queue.ActivityEvent{
		Type: queue.ActivityItemCreated, ServiceID: sid, UserID: uid, ItemKind: kind, ItemID: it.ID,
	})
	return c.JSON(http.StatusCreated, it)
}

func (h *ItemHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	sid, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	kind, err := itemKind(c)
	if err != nil {
		return respondError(c, err)
	}
	itemID, err := paramID(c, "item_id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Items.Delete(ctx, uid, sid, kind, itemID); err != nil {
		return respondError(c, err)
	}
	h.changed(ctx, queue.ActivityEvent{
		Type: queue.ActivityItemDeleted, ServiceID: sid, UserID: uid, ItemKind: kind, ItemID: itemID,
	})
	return c.NoContent(http.StatusNoContent)
}

// changed drops the cached service and publishes ev.  Failures are logged.
func (h *ItemHandler) changed(ctx context.Context, ev queue.ActivityEvent) {
	if h.Cache != nil {
		if err := h.Cache.Invalidate(ctx, cache.ServiceKey(ev.ServiceID)); err != nil {
			h.Log.Warn("service cache invalidation failed", zap.Uint64("service_id", ev.ServiceID), zap.Error(err))
		}
	}
	if h.Events == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Events.Publish(pctx, ev); err != nil {
			h.Log.Warn("activity publish failed", zap.String("type", ev.Type), zap.Error(err))
		}
	}()
}
