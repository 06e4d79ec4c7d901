package model

import "time"

// Item kinds.  Items are child collections of a service that are created
// and deleted immediately rather than staged in editor drafts.
const (
	ItemBenefit    = "benefit"
	ItemAgendaItem = "agenda_item"
	ItemSession    = "session"
	ItemResource   = "resource"
)

// ValidItemKind reports whether kind names a known child collection.
func ValidItemKind(kind string) bool {
	switch kind {
	case ItemBenefit, ItemAgendaItem, ItemSession, ItemResource:
		return true
	}
	return false
}

// ServiceItem is a row of the `service_items` table.  Body carries free text
// (benefit description, agenda notes); URL is used by resources; StartsAt is
// only set for sessions.
type ServiceItem struct {
	ID        uint64     `json:"id"`
	ServiceID uint64     `json:"service_id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	URL       string     `json:"url,omitempty"`
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
}
