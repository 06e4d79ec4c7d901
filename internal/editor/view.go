package editor

// SectionView is everything a client needs to render one section.
type SectionView struct {
	ID          SectionID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Required    bool         `json:"required"`
	Status      Status       `json:"status"`
	Payload     Payload      `json:"payload"`
	HasChanges  bool         `json:"has_changes"`
	IsSaving    bool         `json:"is_saving"`
	CanSave     bool         `json:"can_save"`
	Errors      []FieldError `json:"errors,omitempty"`
	Focused     bool         `json:"focused"`
}

// Progress aggregates the completion of required sections.
type Progress struct {
	Complete int `json:"complete"`
	Required int `json:"required"`
	Percent  int `json:"percent"`
}

// View is a read-only snapshot of a session.
type View struct {
	SessionID string        `json:"session_id"`
	ServiceID uint64        `json:"service_id"`
	State     State         `json:"state"`
	Error     string        `json:"error,omitempty"`
	Layout    LayoutKind    `json:"layout"`
	Focus     SectionID     `json:"focus,omitempty"`
	Saving    bool          `json:"saving"`
	Sections  []SectionView `json:"sections,omitempty"`
	Progress  Progress      `json:"progress"`
	Notice    *Notice       `json:"notice,omitempty"`
}

// View renders the session.  Sections are only included once ready.
func (s *Shell) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		SessionID: s.id,
		ServiceID: s.entityID,
		State:     s.state,
		Layout:    s.layout.Kind,
		Saving:    s.savingAll || len(s.saving) > 0,
		Notice:    s.notice,
	}
	if s.layout.Kind == LayoutAccordion {
		v.Focus = s.layout.Open
	} else {
		v.Focus = s.layout.Active
	}
	if s.state == StateFailed && s.loadErr != nil {
		v.Error = s.loadErr.Error()
	}
	if s.state != StateReady {
		return v
	}
	entity := s.store.Entity()
	for _, d := range s.reg.Visible(entity) {
		draft, _ := s.store.Draft(d.ID)
		errs := d.Section.Validate(entity, draft)
		dirty := s.store.IsDirty(d.ID)
		sv := SectionView{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Required:    d.Required,
			Status:      s.store.Status(d.ID),
			Payload:     draft,
			HasChanges:  dirty,
			IsSaving:    s.saving[d.ID],
			Errors:      errs,
			Focused:     d.ID == v.Focus,
		}
		sv.CanSave = dirty && !sv.IsSaving && len(errs) == 0
		v.Sections = append(v.Sections, sv)
		if d.Required {
			v.Progress.Required++
			if sv.Status == StatusComplete {
				v.Progress.Complete++
			}
		}
	}
	if v.Progress.Required > 0 {
		v.Progress.Percent = v.Progress.Complete * 100 / v.Progress.Required
	}
	return v
}
