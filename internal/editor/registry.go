package editor

import (
	"fmt"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// SectionID identifies a configuration section.
type SectionID string

const (
	SectionBasicInfo      SectionID = "basic_info"
	SectionPricing        SectionID = "pricing"
	SectionBundle         SectionID = "bundle"
	SectionPackage        SectionID = "package"
	SectionLocation       SectionID = "location"
	SectionSchedule       SectionID = "schedule"
	SectionBenefits       SectionID = "benefits"
	SectionResources      SectionID = "resources"
	SectionRevenueSharing SectionID = "revenue_sharing"
	SectionAdvanced       SectionID = "advanced"
	SectionStatus         SectionID = "status"
)

// Descriptor is the static description of a section.  A nil Visible means
// the section is shown for every subtype; a required section with a nil
// Complete is always complete.
type Descriptor struct {
	ID          SectionID
	Title       string
	Description string
	Required    bool
	Visible     func(svc *model.Service) bool
	Complete    Predicate
	Section     Section
}

// VisibleFor reports whether the section renders for svc.
func (d Descriptor) VisibleFor(svc *model.Service) bool {
	return d.Visible == nil || svc == nil || d.Visible(svc)
}

// Registry is the ordered, immutable list of sections.
type Registry struct {
	descriptors []Descriptor
	index       map[SectionID]int
}

// NewRegistry builds a registry in the given order.
func NewRegistry(ds ...Descriptor) (*Registry, error) {
	r := &Registry{
		descriptors: make([]Descriptor, 0, len(ds)),
		index:       make(map[SectionID]int, len(ds)),
	}
	for _, d := range ds {
		if _, dup := r.index[d.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSection, d.ID)
		}
		if d.Section == nil {
			return nil, fmt.Errorf("section %s has no implementation", d.ID)
		}
		r.index[d.ID] = len(r.descriptors)
		r.descriptors = append(r.descriptors, d)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(ds ...Descriptor) *Registry {
	r, err := NewRegistry(ds...)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns the descriptors in registry order.
func (r *Registry) All() []Descriptor {
	return append([]Descriptor(nil), r.descriptors...)
}

// Visible returns the descriptors shown for svc, in registry order.
func (r *Registry) Visible(svc *model.Service) []Descriptor {
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		if d.VisibleFor(svc) {
			out = append(out, d)
		}
	}
	return out
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id SectionID) (Descriptor, bool) {
	i, ok := r.index[id]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[i], true
}

// MergePatch shallow-merges the patches of the given drafts in registry
// order.  On key collision the later section wins.
func (r *Registry) MergePatch(drafts map[SectionID]Payload) map[string]any {
	out := map[string]any{}
	for _, d := range r.descriptors {
		p, ok := drafts[d.ID]
		if !ok {
			continue
		}
		for k, v := range d.Section.Patch(p) {
			out[k] = v
		}
	}
	return out
}

func subtypeIn(subtypes ...string) func(*model.Service) bool {
	return func(svc *model.Service) bool {
		for _, s := range subtypes {
			if svc.Subtype == s {
				return true
			}
		}
		return false
	}
}

func subtypeNot(subtype string) func(*model.Service) bool {
	return func(svc *model.Service) bool { return svc.Subtype != subtype }
}

func validateBasicInfo(_ *model.Service, p Payload) []FieldError {
	var errs []FieldError
	if p.String("name") == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}
	if p.String("description") == "" {
		errs = append(errs, FieldError{Field: "description", Message: "description is required"})
	}
	return errs
}

func validatePricing(_ *model.Service, p Payload) []FieldError {
	var errs []FieldError
	if v, _ := p.Number("price_cents"); v <= 0 {
		errs = append(errs, FieldError{Field: "price_cents", Message: "price must be greater than zero"})
	}
	if v, _ := p.Number("duration_minutes"); v <= 0 {
		errs = append(errs, FieldError{Field: "duration_minutes", Message: "duration must be greater than zero"})
	}
	return errs
}

func validatePackage(_ *model.Service, p Payload) []FieldError {
	if p.Len("package_service_ids") == 0 {
		return []FieldError{{Field: "package_service_ids", Message: "add at least one service"}}
	}
	return nil
}

func locationChosen(p Payload, _ *model.Service) bool {
	return p.String("location_type") != ""
}

func statusChosen(p Payload, _ *model.Service) bool {
	return p.String("status") != "" && p.String("visibility") != ""
}

// DefaultRegistry returns the service editor sections.
func DefaultRegistry() *Registry {
	return MustRegistry(
		Descriptor{
			ID:          SectionBasicInfo,
			Title:       "Basic information",
			Description: "Name, description and category shown on the listing.",
			Required:    true,
			Complete:    whenValid(validateBasicInfo),
			Section: fieldSection{
				fields:   []string{"name", "description", "category_id"},
				validate: validateBasicInfo,
			},
		},
		Descriptor{
			ID:          SectionPricing,
			Title:       "Pricing",
			Description: "Price and session duration.",
			Required:    true,
			Complete:    whenValid(validatePricing),
			Section: fieldSection{
				fields:   []string{"price_cents", "currency", "duration_minutes"},
				validate: validatePricing,
			},
		},
		Descriptor{
			ID:          SectionBundle,
			Title:       "Session bundle",
			Description: "Sell several sessions together at a reduced price.",
			Visible:     subtypeIn(model.SubtypeSession, model.SubtypeBundle),
			Section: fieldSection{
				fields: []string{"bundle_sessions", "bundle_price_cents", "bundle_validity_days"},
				validate: func(_ *model.Service, p Payload) []FieldError {
					price, _ := p.Number("bundle_price_cents")
					n, _ := p.Number("bundle_sessions")
					if price > 0 && n <= 0 {
						return []FieldError{{Field: "bundle_sessions", Message: "a priced bundle needs at least one session"}}
					}
					return nil
				},
			},
		},
		Descriptor{
			ID:          SectionPackage,
			Title:       "Package contents",
			Description: "Services included in this package.",
			Required:    true,
			Complete:    whenValid(validatePackage),
			Visible:     subtypeIn(model.SubtypePackage),
			Section: fieldSection{
				fields:   []string{"package_service_ids"},
				validate: validatePackage,
			},
		},
		Descriptor{
			ID:          SectionLocation,
			Title:       "Location",
			Description: "Where the service takes place.",
			Required:    true,
			Complete:    locationChosen,
			Section: fieldSection{
				fields: []string{"location_type", "location_id"},
				validate: func(_ *model.Service, p Payload) []FieldError {
					lt := p.String("location_type")
					if lt == "" {
						return []FieldError{{Field: "location_type", Message: "choose a location type"}}
					}
					if id, _ := p.Number("location_id"); lt != model.LocationOnline && id <= 0 {
						return []FieldError{{Field: "location_id", Message: "choose a venue"}}
					}
					return nil
				},
			},
		},
		Descriptor{
			ID:          SectionSchedule,
			Title:       "Schedule",
			Description: "Availability template used for bookings.",
			Visible:     subtypeNot(model.SubtypePackage),
			Section: fieldSection{
				fields: []string{"schedule_id"},
				rename: map[string]string{"schedule_id": "scheduleId"},
			},
		},
		Descriptor{
			ID:          SectionBenefits,
			Title:       "Benefits",
			Description: "What participants get out of the service.",
			Section:     fieldSection{fields: []string{"benefits_heading"}},
		},
		Descriptor{
			ID:          SectionResources,
			Title:       "Resources",
			Description: "Downloads and links shared with participants.",
			Section:     fieldSection{fields: []string{"resources_public"}},
		},
		Descriptor{
			ID:          SectionRevenueSharing,
			Title:       "Revenue sharing",
			Description: "Split earnings with other practitioners.",
			Section:     newRevenueSection(),
		},
		Descriptor{
			ID:          SectionAdvanced,
			Title:       "Advanced settings",
			Description: "Capacity, booking window and cancellation policy.",
			Section: fieldSection{
				fields: []string{"max_participants", "booking_window_days", "cancellation_hours", "requires_approval"},
			},
		},
		Descriptor{
			ID:          SectionStatus,
			Title:       "Status & visibility",
			Description: "Publish the service and control who can find it.",
			Required:    true,
			Complete:    statusChosen,
			Section: fieldSection{
				fields: []string{"status", "visibility"},
			},
		},
	)
}
