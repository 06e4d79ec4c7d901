package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
	"github.com/iliyamo/practitioner-marketplace/internal/queue"
)

// Store is the persistence the flow needs.
type Store interface {
	GetPlan(ctx context.Context, id uint64) (*model.StreamPlan, error)
	Create(ctx context.Context, s *model.Subscription) error
	Activate(ctx context.Context, id uint64) error
	Cancel(ctx context.Context, id uint64) error
}

// Publisher emits activity events.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// Flow runs a subscription purchase.
//
// When Compensate is false a failed confirmation leaves the pending
// subscription and its intent in place; the member can retry the payment
// against the same subscription.  When true the intent and the
// subscription are both cancelled before the error is returned.
type Flow struct {
	Provider   Provider
	Store      Store
	Events     Publisher
	Compensate bool
	Log        *zap.Logger
}

// Result is returned for a subscription that was created.  ClientSecret is
// only set when the provider needs the client to complete an action
// (3-D Secure and similar).  Processing means the provider has not settled
// the payment yet.
type Result struct {
	Subscription *model.Subscription `json:"subscription"`
	ClientSecret string              `json:"client_secret,omitempty"`
	NextAction   bool                `json:"requires_action"`
	Processing   bool                `json:"processing"`
}

// Subscribe creates a pending subscription for userID on planID and
// confirms the payment with paymentMethod.  A declined payment yields a
// *PaymentError.
func (f *Flow) Subscribe(ctx context.Context, userID, planID uint64, paymentMethod string) (*Result, error) {
	if f.Provider == nil {
		return nil, ErrPaymentNotConfigured
	}
	log := f.logger().With(zap.Uint64("user_id", userID), zap.Uint64("plan_id", planID))

	plan, err := f.Store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	intent, err := f.Provider.CreateIntent(ctx, plan.PriceCents, plan.Currency, map[string]string{
		"plan_id": strconv.FormatUint(plan.ID, 10),
		"user_id": strconv.FormatUint(userID, 10),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	sub := &model.Subscription{
		UserID:          userID,
		PlanID:          plan.ID,
		AmountCents:     plan.PriceCents,
		Currency:        plan.Currency,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
	}
	if err := f.Store.Create(ctx, sub); err != nil {
		// Nothing references the intent yet.
		if cerr := f.Provider.Cancel(ctx, intent.ID); cerr != nil {
			log.Warn("orphan payment intent not cancelled", zap.String("intent", intent.ID), zap.Error(cerr))
		}
		return nil, err
	}

	confirmed, err := f.Provider.Confirm(ctx, intent.ID, paymentMethod)
	if err != nil {
		return nil, f.decline(ctx, log, sub, err.Error(), err)
	}

	res := &Result{Subscription: sub}
	switch confirmed.Status {
	case IntentSucceeded:
		if err := f.Store.Activate(ctx, sub.ID); err != nil {
			return nil, err
		}
		sub.Status = model.SubscriptionActive
		f.publish(ctx, queue.ActivityEvent{
			Type:           queue.ActivitySubscriptionActivated,
			UserID:         userID,
			SubscriptionID: sub.ID,
		})
	case IntentRequiresAction:
		res.NextAction = true
		res.ClientSecret = confirmed.ClientSecret
		if res.ClientSecret == "" {
			res.ClientSecret = sub.ClientSecret
		}
	case IntentProcessing:
		// Settled later by the provider; the subscription stays pending.
		res.Processing = true
	case IntentRequiresPaymentMethod:
		return nil, f.decline(ctx, log, sub, "The payment method was declined.", nil)
	default:
		return nil, f.decline(ctx, log, sub, "unexpected payment status "+confirmed.Status, nil)
	}
	return res, nil
}

// decline records a failed confirmation and returns it as a *PaymentError.
func (f *Flow) decline(ctx context.Context, log *zap.Logger, sub *model.Subscription, msg string, cause error) error {
	perr := &PaymentError{SubscriptionID: sub.ID, Message: msg, Err: cause}
	log.Info("payment confirmation failed", zap.Uint64("subscription_id", sub.ID), zap.String("reason", msg))
	if f.Compensate {
		f.compensate(ctx, log, sub)
	}
	f.publish(ctx, queue.ActivityEvent{
		Type:           queue.ActivityPaymentFailed,
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		Message:        perr.Message,
	})
	return perr
}

func (f *Flow) compensate(ctx context.Context, log *zap.Logger, sub *model.Subscription) {
	if err := f.Provider.Cancel(ctx, sub.PaymentIntentID); err != nil {
		log.Warn("intent cancel failed", zap.String("intent", sub.PaymentIntentID), zap.Error(err))
	}
	if err := f.Store.Cancel(ctx, sub.ID); err != nil {
		log.Warn("subscription cancel failed", zap.Uint64("subscription_id", sub.ID), zap.Error(err))
		return
	}
	sub.Status = model.SubscriptionCancelled
}

func (f *Flow) publish(ctx context.Context, ev queue.ActivityEvent) {
	if f.Events == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	if err := f.Events.Publish(ctx, ev); err != nil {
		f.logger().Warn("activity publish failed", zap.String("type", ev.Type), zap.Error(err))
	}
}

func (f *Flow) logger() *zap.Logger {
	if f.Log == nil {
		return zap.NewNop()
	}
	return f.Log
}
