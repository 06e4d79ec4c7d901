package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/practitioner-marketplace/internal/editor"
	"github.com/iliyamo/practitioner-marketplace/internal/middleware"
	"github.com/iliyamo/practitioner-marketplace/internal/model"
	"github.com/iliyamo/practitioner-marketplace/internal/repository"
	"github.com/iliyamo/practitioner-marketplace/internal/utils"
)

const testSecret = "test-secret"

// memServices is an in-memory reader and gateway over a set of services.
type memServices struct {
	mu      sync.Mutex
	svcs    map[uint64]*model.Service
	saveErr error
	saves   int
}

func newMemServices(svcs ...*model.Service) *memServices {
	m := &memServices{svcs: map[uint64]*model.Service{}}
	for _, s := range svcs {
		m.svcs[s.ID] = s
	}
	return m
}

func (m *memServices) GetService(_ context.Context, id uint64) (*model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.svcs[id]
	if !ok {
		return nil, repository.ErrServiceNotFound
	}
	return s.Clone(), nil
}

func (m *memServices) Save(_ context.Context, scope editor.Scope, id uint64, patch map[string]any) (*model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	s, ok := m.svcs[id]
	if !ok {
		return nil, repository.ErrServiceNotFound
	}
	if s.OwnerID != scope.User.UserID {
		return nil, repository.ErrForbidden
	}
	next := s.Clone()
	if err := next.ApplyPatch(patch); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	m.svcs[id] = next
	return next.Clone(), nil
}

func (m *memServices) get(id uint64) *model.Service {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.svcs[id].Clone()
}

func sampleService() *model.Service {
	return &model.Service{
		ID: 10, OwnerID: 1, Subtype: model.SubtypeSession,
		Name: "Breathwork", Description: "One-to-one session",
		PriceCents: 4000, Currency: "USD", DurationMinutes: 60,
		LocationType: model.LocationOnline,
		Status:       model.StatusActive, Visibility: model.VisibilityPublic,
	}
}

func token(t *testing.T, uid uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, uid, role, 5)
	require.NoError(t, err)
	return tok.Token
}

func do(t *testing.T, e *echo.Echo, method, target, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func authed() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{middleware.JWTAuth(testSecret)}
}

func sectionOf(v editor.View, id editor.SectionID) editor.SectionView {
	for _, s := range v.Sections {
		if s.ID == id {
			return s
		}
	}
	return editor.SectionView{}
}

func hasSection(v editor.View, id editor.SectionID) bool {
	return sectionOf(v, id).ID == id
}
