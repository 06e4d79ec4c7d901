package editor

import (
	"sync"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// DraftStore holds the per-section drafts of one editor session, the set of
// sections with unsaved edits and their derived completion status.  Every
// method is safe for concurrent use.
type DraftStore struct {
	mu     sync.RWMutex
	reg    *Registry
	entity *model.Service
	drafts map[SectionID]Payload
	dirty  map[SectionID]struct{}
	revs   map[SectionID]uint64
	status map[SectionID]Status
}

// NewDraftStore returns an empty store bound to reg.
func NewDraftStore(reg *Registry) *DraftStore {
	return &DraftStore{
		reg:    reg,
		drafts: map[SectionID]Payload{},
		dirty:  map[SectionID]struct{}{},
		revs:   map[SectionID]uint64{},
		status: map[SectionID]Status{},
	}
}

// Seed derives every visible section's draft from svc, clears the dirty set
// and recomputes all statuses.
func (s *DraftStore) Seed(svc *model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entity = svc.Clone()
	s.drafts = map[SectionID]Payload{}
	s.dirty = map[SectionID]struct{}{}
	s.status = map[SectionID]Status{}
	for _, d := range s.reg.Visible(s.entity) {
		s.seedLocked(d)
	}
}

// Reseed refreshes the store from a newly fetched entity.  Sections with
// unsaved edits keep their drafts; all other visible sections are re-derived.
// Sections that are no longer visible are dropped together with their edits.
func (s *DraftStore) Reseed(svc *model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entity = svc.Clone()
	visible := map[SectionID]bool{}
	for _, d := range s.reg.Visible(s.entity) {
		visible[d.ID] = true
		if _, dirty := s.dirty[d.ID]; dirty {
			s.status[d.ID] = s.reg.Evaluate(d.ID, s.drafts[d.ID], s.entity)
			continue
		}
		s.seedLocked(d)
	}
	for id := range s.drafts {
		if !visible[id] {
			delete(s.drafts, id)
			delete(s.dirty, id)
			delete(s.status, id)
		}
	}
}

func (s *DraftStore) seedLocked(d Descriptor) {
	p, err := normalize(d.Section.Seed(s.entity))
	if err != nil {
		p = Payload{}
	}
	s.drafts[d.ID] = p
	s.status[d.ID] = s.reg.Evaluate(d.ID, p, s.entity)
}

// Update replaces the draft of id, marks it dirty and recomputes its status.
// No other section's draft is touched.
func (s *DraftStore) Update(id SectionID, p Payload) error {
	norm, err := normalize(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[id]; !ok {
		return ErrUnknownSection
	}
	s.drafts[id] = norm
	s.dirty[id] = struct{}{}
	s.revs[id]++
	s.status[id] = s.reg.Evaluate(id, norm, s.entity)
	return nil
}

// CommitSection removes id from the dirty set after a confirmed save.
func (s *DraftStore) CommitSection(id SectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirty, id)
}

// CommitAll empties the dirty set after a confirmed save-all.
func (s *DraftStore) CommitAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = map[SectionID]struct{}{}
}

// Draft returns a copy of the draft of id.
func (s *DraftStore) Draft(id SectionID) (Payload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.drafts[id]
	return p.Clone(), ok
}

// Drafts returns copies of the drafts of the given sections.
func (s *DraftStore) Drafts(ids []SectionID) map[SectionID]Payload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[SectionID]Payload, len(ids))
	for _, id := range ids {
		if p, ok := s.drafts[id]; ok {
			out[id] = p.Clone()
		}
	}
	return out
}

// IsDirty reports whether id has unsaved edits.
func (s *DraftStore) IsDirty(id SectionID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dirty[id]
	return ok
}

// Dirty returns the dirty section ids in registry order.
func (s *DraftStore) Dirty() []SectionID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []SectionID
	for _, d := range s.reg.descriptors {
		if _, ok := s.dirty[d.ID]; ok {
			out = append(out, d.ID)
		}
	}
	return out
}

// Status returns the completion status of id.
func (s *DraftStore) Status(id SectionID) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[id]
}

// Revision counts the edits applied to id.  Saves compare it before and
// after the request to detect edits made while the save was in flight.
func (s *DraftStore) Revision(id SectionID) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revs[id]
}

// Entity returns a copy of the snapshot the drafts were derived from.
func (s *DraftStore) Entity() *model.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entity.Clone()
}
