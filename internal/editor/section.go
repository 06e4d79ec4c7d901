package editor

import (
	"github.com/iliyamo/practitioner-marketplace/internal/model"
	"github.com/iliyamo/practitioner-marketplace/internal/pricing"
)

// FieldError is an advisory validation message.  It disables the section's
// save affordance but never blocks a save request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Section binds one configuration form to a subset of entity fields.
// Implementations never talk to the persistence layer; saving is requested
// through the Shell.
type Section interface {
	// Seed derives the section's initial draft from the entity.
	Seed(svc *model.Service) Payload
	// Validate returns advisory field errors for the draft.
	Validate(svc *model.Service, p Payload) []FieldError
	// Patch converts the draft into entity fields, applying any renaming.
	Patch(p Payload) map[string]any
}

// Normalizer is implemented by sections that rewrite edits on the way in,
// e.g. clamping revenue shares.  prev is the draft being replaced.
type Normalizer interface {
	Normalize(prev, next Payload) Payload
}

// fieldSection maps entity fields one to one, with optional renaming from
// entity field to draft key.
type fieldSection struct {
	fields   []string
	rename   map[string]string
	validate func(svc *model.Service, p Payload) []FieldError
}

func (s fieldSection) key(field string) string {
	if k, ok := s.rename[field]; ok {
		return k
	}
	return field
}

func (s fieldSection) Seed(svc *model.Service) Payload {
	all := entityFields(svc)
	p := Payload{}
	for _, f := range s.fields {
		p[s.key(f)] = all[f]
	}
	return p
}

func (s fieldSection) Validate(svc *model.Service, p Payload) []FieldError {
	if s.validate == nil {
		return nil
	}
	return s.validate(svc, p)
}

// Patch only emits the section's own fields so one section can never write
// another section's data.
func (s fieldSection) Patch(p Payload) map[string]any {
	out := map[string]any{}
	for _, f := range s.fields {
		if v, ok := p[s.key(f)]; ok {
			out[f] = cloneValue(v)
		}
	}
	return out
}

// revenueSection clamps shares so they never exceed 100% in total.
type revenueSection struct {
	fieldSection
}

func newRevenueSection() revenueSection {
	return revenueSection{fieldSection{
		fields: []string{"revenue_shares"},
		validate: func(_ *model.Service, p Payload) []FieldError {
			var shares []model.RevenueShare
			if err := p.Decode("revenue_shares", &shares); err != nil {
				return []FieldError{{Field: "revenue_shares", Message: "malformed revenue shares"}}
			}
			if !pricing.CanSave(shares) {
				return []FieldError{{Field: "revenue_shares", Message: "additional shares exceed 100%"}}
			}
			return nil
		},
	}}
}

// Normalize clamps only the entries that differ from prev, each against the
// capacity the other entries leave.  Untouched entries keep their value.
func (s revenueSection) Normalize(prev, next Payload) Payload {
	var shares []model.RevenueShare
	if err := next.Decode("revenue_shares", &shares); err != nil || shares == nil {
		return next
	}
	var before []model.RevenueShare
	if err := prev.Decode("revenue_shares", &before); err != nil {
		before = nil
	}

	var edited, appended []int
	out := append([]model.RevenueShare(nil), shares...)
	for i := range out {
		switch {
		case i >= len(before):
			appended = append(appended, i)
		case out[i] != before[i]:
			edited = append(edited, i)
		default:
			continue
		}
		out[i].Percent = 0
	}
	for _, i := range edited {
		out = pricing.SetShare(out, i, shares[i].Percent)
	}
	if len(appended) > 0 {
		tail := make([]model.RevenueShare, len(appended))
		for j, i := range appended {
			tail[j] = shares[i]
		}
		// Appended entries share what the rest leave, in list order.
		tail = pricing.DistributeWithin(tail, pricing.MaxSharePercent-pricing.SumShares(out)).Shares
		for j, i := range appended {
			out[i] = tail[j]
		}
	}

	res := next.Clone()
	norm, err := normalize(map[string]any{"revenue_shares": out})
	if err != nil {
		return next
	}
	res["revenue_shares"] = norm["revenue_shares"]
	return res
}
