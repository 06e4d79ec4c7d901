package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// State is the lifecycle state of an editor session.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// ServiceReader loads the entity being edited.
type ServiceReader interface {
	GetService(ctx context.Context, id uint64) (*model.Service, error)
}

// Notice is the transient, user-facing outcome of the latest save.
type Notice struct {
	Level   string    `json:"level"` // "success" or "error"
	Message string    `json:"message"`
	Section SectionID `json:"section,omitempty"`
	At      time.Time `json:"at"`
}

// ShellConfig wires a Shell.
type ShellConfig struct {
	SessionID string
	EntityID  uint64
	Scope     Scope
	Registry  *Registry
	Reader    ServiceReader
	Gateway   Gateway
	Layout    LayoutKind
	Logger    *zap.Logger
}

// Shell orchestrates one editing session: it loads the entity, seeds the
// draft store, accepts edits and dispatches section or whole-entity saves.
//
// State machine: loading -> ready | failed; failed -> loading on Retry.
// While ready, saves run without blocking further edits; a section that is
// already saving rejects another save of itself.
type Shell struct {
	mu        sync.Mutex
	id        string
	entityID  uint64
	scope     Scope
	reg       *Registry
	store     *DraftStore
	reader    ServiceReader
	gw        Gateway
	log       *zap.Logger
	layout    Layout
	state     State
	loadErr   error
	saving    map[SectionID]bool
	savingAll bool
	notice    *Notice
	lastUsed  time.Time
}

// NewShell returns a shell in the loading state.  Call Load to fetch.
func NewShell(cfg ShellConfig) *Shell {
	reg := cfg.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		id:       cfg.SessionID,
		entityID: cfg.EntityID,
		scope:    cfg.Scope,
		reg:      reg,
		store:    NewDraftStore(reg),
		reader:   cfg.Reader,
		gw:       cfg.Gateway,
		log:      log.With(zap.String("editor_session", cfg.SessionID), zap.Uint64("service_id", cfg.EntityID)),
		layout:   Layout{Kind: ParseLayout(string(cfg.Layout))},
		state:    StateLoading,
		saving:   map[SectionID]bool{},
		lastUsed: time.Now(),
	}
}

// ID returns the session id.
func (s *Shell) ID() string { return s.id }

// Owner returns the user the session belongs to.
func (s *Shell) Owner() uint64 { return s.scope.User.UserID }

// Store exposes the draft store.
func (s *Shell) Store() *DraftStore { return s.store }

// Load fetches the entity once and seeds every visible section.  A fetch
// error moves the shell to failed; the error is also returned.
func (s *Shell) Load(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.loadErr = nil
	s.mu.Unlock()

	svc, err := s.reader.GetService(ctx, s.entityID)
	if err == nil && svc.OwnerID != s.scope.User.UserID {
		err = ErrNotOwner
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if err != nil {
		s.state = StateFailed
		s.loadErr = err
		s.log.Warn("editor load failed", zap.Error(err))
		return err
	}
	s.store.Seed(svc)
	s.state = StateReady
	if s.layout.Kind == LayoutAccordion && s.layout.Open == "" {
		s.layout.Open = s.firstVisible()
	}
	if s.layout.Kind == LayoutSplitView && s.layout.Active == "" {
		s.layout.Active = s.firstVisible()
	}
	return nil
}

// Retry reloads after a failed fetch.  It is a no-op when ready.
func (s *Shell) Retry(ctx context.Context) error {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	if st == StateReady {
		return nil
	}
	return s.Load(ctx)
}

// Update replaces the draft of a section.  Edits are accepted while saves
// are in flight.
func (s *Shell) Update(id SectionID, p Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.state != StateReady {
		return ErrNotReady
	}
	d, err := s.visibleLocked(id)
	if err != nil {
		return err
	}
	if n, ok := d.Section.(Normalizer); ok {
		prev, _ := s.store.Draft(id)
		p = n.Normalize(prev, p)
	}
	return s.store.Update(id, p)
}

// SaveSection persists the current draft of one section.  On failure the
// draft and dirty flag are left as they were.
func (s *Shell) SaveSection(ctx context.Context, id SectionID) (*model.Service, error) {
	s.mu.Lock()
	s.touch()
	if s.state != StateReady {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	d, err := s.visibleLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.saving[id] {
		s.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	draft, _ := s.store.Draft(id)
	rev := s.store.Revision(id)
	patch := d.Section.Patch(draft)
	s.saving[id] = true
	s.mu.Unlock()

	svc, err := s.dispatch(ctx, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saving, id)
	if err != nil {
		s.notify("error", fmt.Sprintf("Could not save %s: %v", d.Title, err), id)
		return nil, fmt.Errorf("save %s: %w", id, err)
	}
	if s.store.Revision(id) == rev {
		s.store.CommitSection(id)
	}
	s.store.Reseed(svc)
	s.notify("success", d.Title+" saved", id)
	return svc, nil
}

// SaveAll merges every dirty draft in registry order (later sections win on
// key collisions) and persists them in one request.  Sections already being
// saved on their own are skipped.  With nothing dirty it returns the current
// snapshot without a request.
func (s *Shell) SaveAll(ctx context.Context) (*model.Service, error) {
	s.mu.Lock()
	s.touch()
	if s.state != StateReady {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	if s.savingAll {
		s.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	all := s.store.Dirty()
	if len(all) == 0 {
		s.mu.Unlock()
		return s.store.Entity(), nil
	}
	// Sections with their own save in flight are left to that request.
	dirty := make([]SectionID, 0, len(all))
	for _, id := range all {
		if !s.saving[id] {
			dirty = append(dirty, id)
		}
	}
	if len(dirty) == 0 {
		s.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	revs := make(map[SectionID]uint64, len(dirty))
	for _, id := range dirty {
		revs[id] = s.store.Revision(id)
		s.saving[id] = true
	}
	patch := s.reg.MergePatch(s.store.Drafts(dirty))
	s.savingAll = true
	s.mu.Unlock()

	svc, err := s.dispatch(ctx, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.savingAll = false
	for _, id := range dirty {
		delete(s.saving, id)
	}
	if err != nil {
		s.notify("error", fmt.Sprintf("Could not save changes: %v", err), "")
		return nil, fmt.Errorf("save all: %w", err)
	}
	unchanged := len(dirty) == len(all)
	for _, id := range dirty {
		if s.store.Revision(id) != revs[id] {
			unchanged = false
			continue
		}
		s.store.CommitSection(id)
	}
	if unchanged {
		s.store.CommitAll()
	}
	s.store.Reseed(svc)
	s.notify("success", "All changes saved", "")
	return svc, nil
}

// dispatch sends the patch and refetches the entity through the reader so
// the drafts are re-derived from the stored record.
func (s *Shell) dispatch(ctx context.Context, patch map[string]any) (*model.Service, error) {
	svc, err := s.gw.Save(ctx, s.scope, s.entityID, patch)
	if err != nil {
		return nil, err
	}
	fresh, err := s.reader.GetService(ctx, s.entityID)
	if err != nil {
		s.log.Warn("refetch after save failed; using save response", zap.Error(err))
		return svc, nil
	}
	return fresh, nil
}

// Toggle opens or closes an accordion section.
func (s *Shell) Toggle(id SectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.state != StateReady {
		return ErrNotReady
	}
	if _, err := s.visibleLocked(id); err != nil {
		return err
	}
	return s.layout.Toggle(id)
}

// Scroll updates the split-view scroll-spy.  Offsets of sections that are
// not visible are ignored.
func (s *Shell) Scroll(offsets []SectionOffset, scrollTop int) (SectionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.state != StateReady {
		return "", ErrNotReady
	}
	known := make([]SectionOffset, 0, len(offsets))
	for _, o := range offsets {
		if _, err := s.visibleLocked(o.ID); err == nil {
			known = append(known, o)
		}
	}
	return s.layout.Spy(known, scrollTop)
}

// LastUsed reports when the session was last touched.
func (s *Shell) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Shell) touch() { s.lastUsed = time.Now() }

func (s *Shell) notify(level, msg string, id SectionID) {
	s.notice = &Notice{Level: level, Message: msg, Section: id, At: time.Now().UTC()}
}

func (s *Shell) visibleLocked(id SectionID) (Descriptor, error) {
	d, ok := s.reg.Lookup(id)
	if !ok || !d.VisibleFor(s.store.Entity()) {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownSection, id)
	}
	return d, nil
}

func (s *Shell) firstVisible() SectionID {
	vis := s.reg.Visible(s.store.Entity())
	if len(vis) == 0 {
		return ""
	}
	return vis[0].ID
}
