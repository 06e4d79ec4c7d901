package model

import "time"

// Category groups services for browsing (e.g. "Yoga", "Coaching").
// Categories are reference data shared by all practitioners.
type Category struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Location is a physical venue a practitioner can attach to in-person or
// hybrid services.
//
// Fields:
//  ID      – locations.id
//  Name    – display name
//  Address – single-line postal address
//  City    – city used for search filters
type Location struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// Schedule is a named availability template owned by a practitioner.  A
// service references at most one schedule through Service.ScheduleID.
type Schedule struct {
	ID             uint64    `json:"id"`
	PractitionerID uint64    `json:"practitioner_id"`
	Name           string    `json:"name"`
	Timezone       string    `json:"timezone"`
	CreatedAt      time.Time `json:"created_at"`
}

// ServiceSummary is the lightweight listing row used to populate selection
// controls (e.g. choosing services for a package).
type ServiceSummary struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Subtype    string `json:"subtype"`
	PriceCents int64  `json:"price_cents"`
	Status     string `json:"status"`
}
