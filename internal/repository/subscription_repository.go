package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

var (
	// ErrPlanNotFound is returned when a stream plan id does not exist.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrSubscriptionNotFound is returned when a subscription id does not exist.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// SubscriptionRepo stores stream plans and member subscriptions.
type SubscriptionRepo struct {
	db *sql.DB
}

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// GetPlan fetches a stream plan.
func (r *SubscriptionRepo) GetPlan(ctx context.Context, id uint64) (*model.StreamPlan, error) {
	const q = `SELECT id, practitioner_id, name, price_cents, currency, interval_months
	           FROM stream_plans WHERE id = ?`
	var p model.StreamPlan
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.PractitionerID, &p.Name,
		&p.PriceCents, &p.Currency, &p.IntervalMonths)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a PENDING subscription.  ID and timestamps are filled in.
func (r *SubscriptionRepo) Create(ctx context.Context, s *model.Subscription) error {
	s.Status = model.SubscriptionPending
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, plan_id, amount_cents, currency, status, payment_intent_id)
		 VALUES (?,?,?,?,?,?)`,
		s.UserID, s.PlanID, s.AmountCents, s.Currency, s.Status, s.PaymentIntentID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM subscriptions WHERE id = ?`, s.ID).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

// Activate moves a PENDING subscription to ACTIVE.
func (r *SubscriptionRepo) Activate(ctx context.Context, id uint64) error {
	return r.transition(ctx, id, model.SubscriptionPending, model.SubscriptionActive)
}

// Cancel moves a PENDING subscription to CANCELLED.  It is the compensating
// step for a failed payment confirmation.
func (r *SubscriptionRepo) Cancel(ctx context.Context, id uint64) error {
	return r.transition(ctx, id, model.SubscriptionPending, model.SubscriptionCancelled)
}

func (r *SubscriptionRepo) transition(ctx context.Context, id uint64, from, to string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var status string
		err := r.db.QueryRowContext(ctx, `SELECT status FROM subscriptions WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSubscriptionNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}
