package editor

import (
	"context"
	"sync"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// memServices is an in-memory ServiceReader + Gateway pair.  Saves apply the
// patch with model.Service.ApplyPatch so they behave like the repository.
type memServices struct {
	mu        sync.Mutex
	svc       *model.Service
	readErr   error
	saveErr   error
	patches   []map[string]any
	reads     int
	block     chan struct{} // when set, Save waits on it
	started   chan struct{} // when set, Save signals entry
	invalided []string
}

func (m *memServices) GetService(_ context.Context, _ uint64) (*model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.svc.Clone(), nil
}

func (m *memServices) Save(_ context.Context, scope Scope, _ uint64, patch map[string]any) (*model.Service, error) {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patches = append(m.patches, patch)
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	next := m.svc.Clone()
	if err := next.ApplyPatch(patch); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	m.svc = next
	if scope.Cache != nil {
		_ = scope.Cache.Invalidate(context.Background(), "service")
	}
	return next.Clone(), nil
}

func (m *memServices) lastPatch() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.patches) == 0 {
		return nil
	}
	return m.patches[len(m.patches)-1]
}

func sessionService() *model.Service {
	return &model.Service{
		ID:              10,
		OwnerID:         1,
		Subtype:         model.SubtypeSession,
		Name:            "Breathwork",
		Description:     "One-to-one breathwork session",
		PriceCents:      4000,
		Currency:        "USD",
		DurationMinutes: 60,
		LocationType:    model.LocationOnline,
		ScheduleID:      5,
		Status:          model.StatusDraft,
		Visibility:      model.VisibilityPublic,
	}
}

func newTestShell(m *memServices, layout LayoutKind) *Shell {
	return NewShell(ShellConfig{
		SessionID: "s1",
		EntityID:  10,
		Scope:     Scope{User: Principal{UserID: 1, Role: model.RolePractitioner}},
		Reader:    m,
		Gateway:   m,
		Layout:    layout,
	})
}
