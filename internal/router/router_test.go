package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/practitioner-marketplace/internal/config"
	"github.com/iliyamo/practitioner-marketplace/internal/editor"
	"github.com/iliyamo/practitioner-marketplace/internal/handler"
	"github.com/iliyamo/practitioner-marketplace/internal/model"
	"github.com/iliyamo/practitioner-marketplace/internal/utils"
)

const secret = "router-secret"

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newServer() *echo.Echo {
	e := echo.New()
	sessions := editor.NewManager(nil, nil, nil, nil)
	services := handler.NewServiceHandler(nil, nil, nil, nil)
	lookups := handler.NewLookupHandler(nil)
	items := handler.NewItemHandler(nil, nil, nil, nil)

	RegisterRoutes(e, okPinger{}, sessions)
	RegisterAuth(e, handler.NewAuthHandler(config.Config{JWTSecret: secret}, nil, nil, nil), secret)
	RegisterPublic(e, Public{Services: services, Lookups: lookups, Items: items}, secret)
	RegisterPractitioner(e, Practitioner{
		Editor:   handler.NewEditorHandler(sessions, nil, nil),
		Services: services,
		Items:    items,
	}, secret)
	RegisterSubscriptions(e, handler.NewSubscriptionHandler(nil, nil), nil, secret)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /readyz",
		"POST /v1/auth/login",
		"GET /v1/auth/me",
		"GET /v1/categories",
		"GET /v1/services/:id",
		"POST /v1/pricing/revenue-share",
		"PATCH /v1/services/:id",
		"POST /v1/services/:id/editor",
		"PUT /v1/editor/:sid/sections/:section",
		"POST /v1/editor/:sid/save",
		"DELETE /v1/services/:id/items/:kind/:item_id",
		"POST /v1/subscriptions",
	} {
		assert.True(t, have[want], want)
	}
}

func TestEditorRequiresPractitioner(t *testing.T) {
	e := newServer()
	member, err := utils.NewAccessToken(secret, 3, model.RoleMember, 5)
	require.NoError(t, err)

	call := func(tok string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/services/1/editor", nil)
		if tok != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusForbidden, call(member.Token))
}

func TestHealth(t *testing.T) {
	e := newServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","editor_sessions":0}`, rec.Body.String())
}
