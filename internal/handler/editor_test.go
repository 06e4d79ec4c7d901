package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/practitioner-marketplace/internal/editor"
	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

func newEditorServer(m *memServices) *echo.Echo {
	h := NewEditorHandler(editor.NewManager(nil, m, m, nil), nil, nil)
	e := echo.New()
	g := e.Group("/v1", authed()...)
	g.POST("/services/:id/editor", h.Open)
	g.GET("/editor/:sid", h.Get)
	g.POST("/editor/:sid/retry", h.Retry)
	g.PUT("/editor/:sid/sections/:section", h.UpdateSection)
	g.POST("/editor/:sid/sections/:section/save", h.SaveSection)
	g.POST("/editor/:sid/sections/:section/toggle", h.Toggle)
	g.POST("/editor/:sid/save", h.SaveAll)
	g.POST("/editor/:sid/scroll", h.Scroll)
	g.DELETE("/editor/:sid", h.Close)
	return e
}

func openSession(t *testing.T, e *echo.Echo, tok, layout string) editor.View {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/v1/services/10/editor", tok, echo.Map{"layout": layout})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[editor.View](t, rec)
}

func TestEditor_EditAndSaveSection(t *testing.T) {
	m := newMemServices(sampleService())
	e := newEditorServer(m)
	tok := token(t, 1, model.RolePractitioner)

	v := openSession(t, e, tok, "accordion")
	assert.Equal(t, editor.StateReady, v.State)
	assert.Equal(t, editor.SectionBasicInfo, v.Focus)
	assert.True(t, hasSection(v, editor.SectionBundle), "bundle is offered for sessions")
	assert.False(t, hasSection(v, editor.SectionPackage))

	base := "/v1/editor/" + v.SessionID
	rec := do(t, e, http.MethodPut, base+"/sections/basic_info", tok, echo.Map{
		"payload": echo.Map{"name": "Deep breathwork", "description": "Longer session", "category_id": 2},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	basic := sectionOf(decode[editor.View](t, rec), editor.SectionBasicInfo)
	assert.True(t, basic.HasChanges)
	assert.True(t, basic.CanSave)
	assert.Equal(t, "Breathwork", m.get(10).Name, "drafts are not persisted before save")

	rec = do(t, e, http.MethodPost, base+"/sections/basic_info/save", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v = decode[editor.View](t, rec)
	assert.False(t, sectionOf(v, editor.SectionBasicInfo).HasChanges)
	assert.Equal(t, editor.StatusComplete, sectionOf(v, editor.SectionBasicInfo).Status)
	require.NotNil(t, v.Notice)
	assert.Equal(t, "success", v.Notice.Level)

	saved := m.get(10)
	assert.Equal(t, "Deep breathwork", saved.Name)
	assert.Equal(t, uint64(2), saved.CategoryID)
}

func TestEditor_RevenueShareClamped(t *testing.T) {
	m := newMemServices(sampleService())
	e := newEditorServer(m)
	tok := token(t, 1, model.RolePractitioner)
	v := openSession(t, e, tok, "split_view")

	rec := do(t, e, http.MethodPut, "/v1/editor/"+v.SessionID+"/sections/revenue_sharing", tok, echo.Map{
		"payload": echo.Map{"revenue_shares": []echo.Map{
			{"practitioner_id": 8, "percent": 60},
			{"practitioner_id": 9, "percent": 50},
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rs := sectionOf(decode[editor.View](t, rec), editor.SectionRevenueSharing)
	var shares []model.RevenueShare
	require.NoError(t, rs.Payload.Decode("revenue_shares", &shares))
	assert.Equal(t, []model.RevenueShare{{PractitionerID: 8, Percent: 60}, {PractitionerID: 9, Percent: 40}}, shares)
	assert.True(t, rs.CanSave)
}

func TestEditor_FailedSaveKeepsDraft(t *testing.T) {
	m := newMemServices(sampleService())
	e := newEditorServer(m)
	tok := token(t, 1, model.RolePractitioner)
	v := openSession(t, e, tok, "accordion")
	base := "/v1/editor/" + v.SessionID

	rec := do(t, e, http.MethodPut, base+"/sections/pricing", tok, echo.Map{
		"payload": echo.Map{"price_cents": 5500, "currency": "USD", "duration_minutes": 90},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	m.saveErr = errors.New("backend unavailable")
	rec = do(t, e, http.MethodPost, base+"/save", tok, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[struct {
		Error string      `json:"error"`
		View  editor.View `json:"view"`
	}](t, rec)
	assert.Equal(t, "internal error", body.Error)
	pricingView := sectionOf(body.View, editor.SectionPricing)
	assert.True(t, pricingView.HasChanges, "the draft survives a failed save")
	n, _ := pricingView.Payload.Number("price_cents")
	assert.Equal(t, float64(5500), n)
	require.NotNil(t, body.View.Notice)
	assert.Equal(t, "error", body.View.Notice.Level)

	m.saveErr = nil
	rec = do(t, e, http.MethodPost, base+"/save", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(5500), m.get(10).PriceCents)
}

func TestEditor_InvalidPatchIsUnprocessable(t *testing.T) {
	m := newMemServices(sampleService())
	e := newEditorServer(m)
	tok := token(t, 1, model.RolePractitioner)
	v := openSession(t, e, tok, "accordion")
	base := "/v1/editor/" + v.SessionID

	do(t, e, http.MethodPut, base+"/sections/status", tok, echo.Map{
		"payload": echo.Map{"status": "archived", "visibility": "public"},
	})
	rec := do(t, e, http.MethodPost, base+"/sections/status/save", tok, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestEditor_Ownership(t *testing.T) {
	m := newMemServices(sampleService())
	e := newEditorServer(m)
	owner := token(t, 1, model.RolePractitioner)
	other := token(t, 2, model.RolePractitioner)

	rec := do(t, e, http.MethodPost, "/v1/services/10/editor", other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/services/99/editor", owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	v := openSession(t, e, owner, "accordion")
	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodGet, "/v1/editor/"+v.SessionID, other, nil).Code)
	assert.Equal(t, http.StatusNoContent, do(t, e, http.MethodDelete, "/v1/editor/"+v.SessionID, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodGet, "/v1/editor/"+v.SessionID, owner, nil).Code)
}

func TestEditor_LayoutActions(t *testing.T) {
	m := newMemServices(sampleService())
	e := newEditorServer(m)
	tok := token(t, 1, model.RolePractitioner)

	acc := openSession(t, e, tok, "accordion")
	rec := do(t, e, http.MethodPost, "/v1/editor/"+acc.SessionID+"/sections/pricing/toggle", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, editor.SectionPricing, decode[editor.View](t, rec).Focus)

	rec = do(t, e, http.MethodPost, "/v1/editor/"+acc.SessionID+"/sections/package/toggle", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "package is hidden for sessions")

	rec = do(t, e, http.MethodPost, "/v1/editor/"+acc.SessionID+"/scroll", tok, echo.Map{"scroll_top": 0})
	assert.Equal(t, http.StatusConflict, rec.Code)

	split := openSession(t, e, tok, "split_view")
	rec = do(t, e, http.MethodPost, "/v1/editor/"+split.SessionID+"/scroll", tok, echo.Map{
		"scroll_top": 500,
		"offsets": []echo.Map{
			{"id": "basic_info", "top": 0},
			{"id": "pricing", "top": 400},
			{"id": "location", "top": 900},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, editor.SectionPricing, decode[editor.View](t, rec).Focus)
}
