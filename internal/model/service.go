package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service subtypes.  The subtype decides which editor sections are visible.
const (
	SubtypeSession  = "session"
	SubtypeWorkshop = "workshop"
	SubtypeCourse   = "course"
	SubtypePackage  = "package"
	SubtypeBundle   = "bundle"
)

// Location types.
const (
	LocationOnline   = "online"
	LocationInPerson = "in_person"
	LocationHybrid   = "hybrid"
)

// Status and visibility values.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusInactive = "inactive"

	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)

// ErrInvalidPatch is returned when a partial update names a field that
// cannot be written or carries a value of the wrong shape.
var ErrInvalidPatch = errors.New("invalid patch")

// ErrInvalidService is returned by Validate when the record violates a
// business rule (e.g. revenue shares above 100%).
var ErrInvalidService = errors.New("invalid service")

// RevenueShare allocates a percentage of each booking to an additional
// practitioner.  The primary practitioner (the owner) receives whatever
// remains after all additional shares.
type RevenueShare struct {
	PractitionerID uint64 `json:"practitioner_id"`
	Percent        int    `json:"percent"`
}

// Service is the offering a practitioner configures in the editor.  It maps
// to a row of the `services` table; slice fields are stored as JSON columns.
//
// Fields tagged with json are the wire names used by partial updates.  ID,
// OwnerID and the timestamps are never writable through a patch.
type Service struct {
	ID                 uint64         `json:"id"`
	OwnerID            uint64         `json:"owner_id"`
	Subtype            string         `json:"subtype"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	CategoryID         uint64         `json:"category_id"`
	PriceCents         int64          `json:"price_cents"`
	Currency           string         `json:"currency"`
	DurationMinutes    int            `json:"duration_minutes"`
	LocationType       string         `json:"location_type"`
	LocationID         uint64         `json:"location_id"`
	ScheduleID         uint64         `json:"schedule_id"`
	MaxParticipants    int            `json:"max_participants"`
	BundleSessions     int            `json:"bundle_sessions"`
	BundlePriceCents   int64          `json:"bundle_price_cents"`
	BundleValidityDays int            `json:"bundle_validity_days"`
	PackageServiceIDs  []uint64       `json:"package_service_ids"`
	RevenueShares      []RevenueShare `json:"revenue_shares"`
	BenefitsHeading    string         `json:"benefits_heading"`
	ResourcesPublic    bool           `json:"resources_public"`
	BookingWindowDays  int            `json:"booking_window_days"`
	CancellationHours  int            `json:"cancellation_hours"`
	RequiresApproval   bool           `json:"requires_approval"`
	Status             string         `json:"status"`
	Visibility         string         `json:"visibility"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// readOnlyFields cannot be changed through ApplyPatch.
var readOnlyFields = map[string]bool{
	"id":         true,
	"owner_id":   true,
	"created_at": true,
	"updated_at": true,
}

// patchableFields lists every json field name ApplyPatch accepts.
var patchableFields = map[string]bool{
	"subtype": true, "name": true, "description": true, "category_id": true,
	"price_cents": true, "currency": true, "duration_minutes": true,
	"location_type": true, "location_id": true, "schedule_id": true,
	"max_participants": true, "bundle_sessions": true, "bundle_price_cents": true,
	"bundle_validity_days": true, "package_service_ids": true,
	"revenue_shares": true, "benefits_heading": true, "resources_public": true,
	"booking_window_days": true, "cancellation_hours": true,
	"requires_approval": true, "status": true, "visibility": true,
}

// IsPatchable reports whether field may appear in a partial update.
func IsPatchable(field string) bool {
	return patchableFields[field]
}

// Clone returns a deep copy so callers can mutate it without touching a
// cached snapshot.
func (s *Service) Clone() *Service {
	if s == nil {
		return nil
	}
	c := *s
	if s.PackageServiceIDs != nil {
		c.PackageServiceIDs = append([]uint64(nil), s.PackageServiceIDs...)
	}
	if s.RevenueShares != nil {
		c.RevenueShares = append([]RevenueShare(nil), s.RevenueShares...)
	}
	return &c
}

// ApplyPatch overlays a sparse field set onto the service.  Only the keys
// present in patch are touched.  Unknown or read-only keys fail the whole
// patch and leave the receiver unchanged.
func (s *Service) ApplyPatch(patch map[string]any) error {
	for k := range patch {
		if readOnlyFields[k] {
			return fmt.Errorf("%w: field %q is read-only", ErrInvalidPatch, k)
		}
		if !patchableFields[k] {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidPatch, k)
		}
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	next := s.Clone()
	// Slices are replaced wholesale rather than merged element-wise.
	if _, ok := patch["package_service_ids"]; ok {
		next.PackageServiceIDs = nil
	}
	if _, ok := patch["revenue_shares"]; ok {
		next.RevenueShares = nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	*s = *next
	return nil
}

// Validate enforces the rules the backend applies before persisting.
func (s *Service) Validate() error {
	var problems []string
	switch s.Subtype {
	case SubtypeSession, SubtypeWorkshop, SubtypeCourse, SubtypePackage, SubtypeBundle:
	default:
		problems = append(problems, fmt.Sprintf("unknown subtype %q", s.Subtype))
	}
	if s.PriceCents < 0 {
		problems = append(problems, "price must not be negative")
	}
	if s.DurationMinutes < 0 {
		problems = append(problems, "duration must not be negative")
	}
	switch s.LocationType {
	case "", LocationOnline, LocationInPerson, LocationHybrid:
	default:
		problems = append(problems, fmt.Sprintf("unknown location type %q", s.LocationType))
	}
	switch s.Status {
	case StatusDraft, StatusActive, StatusInactive:
	default:
		problems = append(problems, fmt.Sprintf("unknown status %q", s.Status))
	}
	switch s.Visibility {
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate:
	default:
		problems = append(problems, fmt.Sprintf("unknown visibility %q", s.Visibility))
	}
	total := 0
	for _, rs := range s.RevenueShares {
		if rs.Percent < 0 {
			problems = append(problems, "revenue share must not be negative")
		}
		total += rs.Percent
	}
	if total > 100 {
		problems = append(problems, fmt.Sprintf("revenue shares sum to %d%%", total))
	}
	if s.BundleSessions < 0 || s.BundlePriceCents < 0 {
		problems = append(problems, "bundle values must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidService, strings.Join(problems, "; "))
	}
	return nil
}
