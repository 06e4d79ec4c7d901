package handler

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/practitioner-marketplace/internal/config"
	"github.com/iliyamo/practitioner-marketplace/internal/model"
	"github.com/iliyamo/practitioner-marketplace/internal/repository"
	"github.com/iliyamo/practitioner-marketplace/internal/utils"
)

type memUsers struct {
	mu    sync.Mutex
	users []model.User
}

func (m *memUsers) Create(_ context.Context, email, password, role string, cost int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u := model.User{ID: uint64(len(m.users) + 1), Email: email, PasswordHash: hash, Role: role, IsActive: true}
	m.users = append(m.users, u)
	return u.ID, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]uint64
}

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[hash] = userID
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.tokens[hash]
	if !ok {
		return 0, repository.ErrTokenInvalid
	}
	return uid, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, hash)
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, uid := range m.tokens {
		if uid == userID {
			delete(m.tokens, h)
		}
	}
	return nil
}

func newAuthServer() (*echo.Echo, *memTokens) {
	tokens := &memTokens{tokens: map[string]uint64{}}
	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: bcrypt.MinCost}
	h := NewAuthHandler(cfg, &memUsers{}, tokens, nil)
	e := echo.New()
	g := e.Group("/v1/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout, authed()...)
	g.GET("/me", h.Me, authed()...)
	return e, tokens
}

func TestAuth_RegisterLoginRefresh(t *testing.T) {
	e, tokens := newAuthServer()

	rec := do(t, e, http.MethodPost, "/v1/auth/register", "", echo.Map{
		"email": " Ana@Example.com ", "password": "s3cret-pass", "role": "practitioner",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[authResp](t, rec)
	assert.Equal(t, "ana@example.com", reg.User.Email)
	assert.Equal(t, model.RolePractitioner, reg.User.Role)

	rec = do(t, e, http.MethodPost, "/v1/auth/register", "", echo.Map{"email": "ana@example.com", "password": "another-pass"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "ana@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "ana@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[authResp](t, rec)

	rec = do(t, e, http.MethodGet, "/v1/auth/me", login.Access.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reg.User.ID, decode[userPart](t, rec).ID)

	rec = do(t, e, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": login.Refresh.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decode[authResp](t, rec)
	assert.NotEqual(t, login.Refresh.Token, rotated.Refresh.Token)

	rec = do(t, e, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": login.Refresh.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a rotated token cannot be reused")

	rec = do(t, e, http.MethodPost, "/v1/auth/logout", rotated.Access.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	tokens.mu.Lock()
	assert.Empty(t, tokens.tokens)
	tokens.mu.Unlock()
}

func TestAuth_RegisterRejectsShortPassword(t *testing.T) {
	e, _ := newAuthServer()
	rec := do(t, e, http.MethodPost, "/v1/auth/register", "", echo.Map{"email": "x@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/register", "", echo.Map{"email": "m@example.com", "password": "long-enough", "role": "ADMIN"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, model.RoleMember, decode[authResp](t, rec).User.Role)
}
