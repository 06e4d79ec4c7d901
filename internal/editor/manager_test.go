package editor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_OpenGetClose(t *testing.T) {
	m := &memServices{svc: sessionService()}
	mgr := NewManager(nil, m, m, nil)
	scope := Scope{User: Principal{UserID: 1}}

	sh, err := mgr.Open(context.Background(), scope, 10, LayoutSplitView)
	require.NoError(t, err)
	assert.Len(t, sh.ID(), 36)
	assert.Equal(t, 1, mgr.Count())

	got, err := mgr.Get(sh.ID(), 1)
	require.NoError(t, err)
	assert.Same(t, sh, got)

	_, err = mgr.Get(sh.ID(), 2)
	assert.ErrorIs(t, err, ErrSessionNotFound, "sessions are private to their owner")

	assert.ErrorIs(t, mgr.Close(sh.ID(), 2), ErrSessionNotFound)
	require.NoError(t, mgr.Close(sh.ID(), 1))
	assert.Equal(t, 0, mgr.Count())
}

func TestManager_OpenKeepsFailedSession(t *testing.T) {
	m := &memServices{svc: sessionService()}
	mgr := NewManager(nil, m, m, nil)

	sh, err := mgr.Open(context.Background(), Scope{User: Principal{UserID: 77}}, 10, LayoutAccordion)
	assert.ErrorIs(t, err, ErrNotOwner)
	require.NotNil(t, sh)
	assert.Equal(t, StateFailed, sh.View().State)
	assert.Equal(t, 1, mgr.Count())
}

func TestManager_CleanupExpired(t *testing.T) {
	m := &memServices{svc: sessionService()}
	mgr := NewManager(nil, m, m, nil)
	_, err := mgr.Open(context.Background(), Scope{User: Principal{UserID: 1}}, 10, LayoutAccordion)
	require.NoError(t, err)

	assert.Equal(t, 0, mgr.CleanupExpired(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, mgr.CleanupExpired(time.Millisecond))
	assert.Equal(t, 0, mgr.Count())
}
