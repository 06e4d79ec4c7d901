package model

import "time"

// Subscription states.  A subscription is created PENDING together with a
// payment intent and becomes ACTIVE once the payment is confirmed.
const (
	SubscriptionPending   = "PENDING"
	SubscriptionActive    = "ACTIVE"
	SubscriptionCancelled = "CANCELLED"
)

// StreamPlan is a paid tier of a practitioner's content stream.
type StreamPlan struct {
	ID             uint64 `json:"id"`
	PractitionerID uint64 `json:"practitioner_id"`
	Name           string `json:"name"`
	PriceCents     int64  `json:"price_cents"`
	Currency       string `json:"currency"`
	IntervalMonths int    `json:"interval_months"`
}

// Subscription links a member to a stream plan.
//
// Fields:
//  PaymentIntentID – provider intent created with the subscription
//  ClientSecret    – secret handed to the payment SDK; never persisted
type Subscription struct {
	ID              uint64    `json:"id"`
	UserID          uint64    `json:"user_id"`
	PlanID          uint64    `json:"plan_id"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	PaymentIntentID string    `json:"payment_intent_id"`
	ClientSecret    string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
