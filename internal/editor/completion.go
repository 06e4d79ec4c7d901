package editor

import "github.com/iliyamo/practitioner-marketplace/internal/model"

// Status is the derived completion state of a section.
type Status string

const (
	StatusComplete   Status = "complete"
	StatusIncomplete Status = "incomplete"
	StatusOptional   Status = "optional"
)

// Predicate reports whether a draft has every required sub-field.
type Predicate func(p Payload, svc *model.Service) bool

// whenValid treats a draft as complete once validate reports nothing.
func whenValid(validate func(*model.Service, Payload) []FieldError) Predicate {
	return func(p Payload, svc *model.Service) bool {
		return len(validate(svc, p)) == 0
	}
}

// Evaluate classifies a section's draft.  Non-required sections are always
// optional regardless of how much is filled in; required sections without
// a predicate are always complete.  Evaluate is pure.
func (r *Registry) Evaluate(id SectionID, p Payload, svc *model.Service) Status {
	d, ok := r.Lookup(id)
	if !ok {
		return StatusComplete
	}
	if !d.Required {
		return StatusOptional
	}
	if d.Complete == nil || d.Complete(p, svc) {
		return StatusComplete
	}
	return StatusIncomplete
}
