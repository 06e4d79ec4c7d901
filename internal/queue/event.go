// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// ActivityQueue is the durable queue carrying ActivityEvent messages.
const ActivityQueue = "service.activity"

// Activity types.
const (
	ActivityServiceUpdated        = "service.updated"
	ActivityItemCreated           = "service.item_created"
	ActivityItemDeleted           = "service.item_deleted"
	ActivitySubscriptionActivated = "subscription.activated"
	ActivityPaymentFailed         = "subscription.payment_failed"
)

// ActivityEvent is published after a confirmed write.  It carries enough
// context for downstream consumers to log, notify, or trigger analytics
// without querying the primary database.
type ActivityEvent struct {
	Type           string   `json:"type"`
	ServiceID      uint64   `json:"service_id,omitempty"`
	UserID         uint64   `json:"user_id"`
	Fields         []string `json:"fields,omitempty"`
	ItemKind       string   `json:"item_kind,omitempty"`
	ItemID         uint64   `json:"item_id,omitempty"`
	SubscriptionID uint64   `json:"subscription_id,omitempty"`
	Message        string   `json:"message,omitempty"`
	OccurredAt     string   `json:"occurred_at"`
}
