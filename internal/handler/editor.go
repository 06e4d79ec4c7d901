package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/practitioner-marketplace/internal/editor"
	"github.com/iliyamo/practitioner-marketplace/internal/middleware"
	"github.com/iliyamo/practitioner-marketplace/internal/repository"
)

// EditorHandler exposes editor sessions.  Every response carries the
// session view so the client can render without a second request.
type EditorHandler struct {
	Sessions *editor.Manager
	Cache    editor.Invalidator
	Log      *zap.Logger
}

func NewEditorHandler(m *editor.Manager, inv editor.Invalidator, log *zap.Logger) *EditorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &EditorHandler{Sessions: m, Cache: inv, Log: log}
}

type openReq struct {
	Layout string `json:"layout"`
}

type updateReq struct {
	Payload map[string]any `json:"payload"`
}

type scrollReq struct {
	Offsets   []editor.SectionOffset `json:"offsets"`
	ScrollTop int                    `json:"scroll_top"`
}

// session resolves :sid for the authenticated user.
func (h *EditorHandler) session(c echo.Context) (*editor.Shell, error) {
	uid, err := getUserID(c)
	if err != nil {
		return nil, err
	}
	return h.Sessions.Get(c.Param("sid"), uid)
}

// Open starts a session on :id.  A transient load failure still returns the
// session (state "failed") so the client can retry; a missing or foreign
// service closes it again.
func (h *EditorHandler) Open(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req openReq
	_ = c.Bind(&req)

	ctx, cancel := withTimeout(c)
	defer cancel()

	scope := editor.Scope{
		User:  editor.Principal{UserID: uid, Role: middleware.Role(c)},
		Cache: h.Cache,
	}
	sh, err := h.Sessions.Open(ctx, scope, id, editor.ParseLayout(req.Layout))
	if err != nil && (errors.Is(err, editor.ErrNotOwner) || errors.Is(err, repository.ErrServiceNotFound)) {
		_ = h.Sessions.Close(sh.ID(), uid)
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, sh.View())
}

// Get returns the current view.
func (h *EditorHandler) Get(c echo.Context) error {
	sh, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sh.View())
}

// Retry reloads a session whose initial fetch failed.
func (h *EditorHandler) Retry(c echo.Context) error {
	sh, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := sh.Retry(ctx); err != nil {
		return respondError(c, err, echo.Map{"view": sh.View()})
	}
	return c.JSON(http.StatusOK, sh.View())
}

// UpdateSection replaces the draft of :section.
func (h *EditorHandler) UpdateSection(c echo.Context) error {
	sh, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	var req updateReq
	if err := c.Bind(&req); err != nil || req.Payload == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payload required"})
	}
	if err := sh.Update(editor.SectionID(c.Param("section")), req.Payload); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sh.View())
}

// SaveSection persists one section.  A backend rejection keeps the draft
// and is reported with the view attached.
func (h *EditorHandler) SaveSection(c echo.Context) error {
	sh, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if _, err := sh.SaveSection(ctx, editor.SectionID(c.Param("section"))); err != nil {
		h.logSaveError(c, sh, err)
		return respondError(c, err, echo.Map{"view": sh.View()})
	}
	return c.JSON(http.StatusOK, sh.View())
}

// SaveAll persists every dirty section in one patch.
func (h *EditorHandler) SaveAll(c echo.Context) error {
	sh, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if _, err := sh.SaveAll(ctx); err != nil {
		h.logSaveError(c, sh, err)
		return respondError(c, err, echo.Map{"view": sh.View()})
	}
	return c.JSON(http.StatusOK, sh.View())
}

// Toggle opens or closes an accordion section.
func (h *EditorHandler) Toggle(c echo.Context) error {
	sh, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := sh.Toggle(editor.SectionID(c.Param("section"))); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sh.View())
}

// Scroll feeds split-view heading offsets to the scroll-spy.
func (h *EditorHandler) Scroll(c echo.Context) error {
	sh, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	var req scrollReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if _, err := sh.Scroll(req.Offsets, req.ScrollTop); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sh.View())
}

// Close discards the session and its unsaved drafts.
func (h *EditorHandler) Close(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Sessions.Close(c.Param("sid"), uid); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *EditorHandler) logSaveError(c echo.Context, sh *editor.Shell, err error) {
	if code, _ := statusFor(err); code < http.StatusInternalServerError {
		return
	}
	h.Log.Error("editor save failed",
		zap.String("request_id", middleware.RequestID(c)),
		zap.String("editor_session", sh.ID()),
		zap.Error(err))
}
