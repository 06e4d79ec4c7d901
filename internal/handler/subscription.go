package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/practitioner-marketplace/internal/billing"
	"github.com/iliyamo/practitioner-marketplace/internal/middleware"
)

// Subscriber runs the purchase flow; *billing.Flow implements it.
type Subscriber interface {
	Subscribe(ctx context.Context, userID, planID uint64, paymentMethod string) (*billing.Result, error)
}

// SubscriptionHandler serves content-stream subscriptions.
type SubscriptionHandler struct {
	Flow Subscriber
	Log  *zap.Logger
}

func NewSubscriptionHandler(flow Subscriber, log *zap.Logger) *SubscriptionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubscriptionHandler{Flow: flow, Log: log}
}

type subscribeReq struct {
	PlanID        uint64 `json:"plan_id"`
	PaymentMethod string `json:"payment_method"`
}

// Create subscribes the caller.  A declined payment answers 402 with the
// provider's message and the id of the subscription that was created.
func (h *SubscriptionHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req subscribeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.PlanID == 0 || req.PaymentMethod == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plan_id and payment_method required"})
	}

	// The provider round trips get more room than a database call.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*requestTimeout)
	defer cancel()

	res, err := h.Flow.Subscribe(ctx, uid, req.PlanID, req.PaymentMethod)
	if err != nil {
		if perr, ok := asPaymentError(err); ok {
			return respondError(c, err, echo.Map{"subscription_id": perr.SubscriptionID})
		}
		if code, _ := statusFor(err); code >= http.StatusInternalServerError {
			h.Log.Error("subscribe failed",
				zap.String("request_id", middleware.RequestID(c)),
				zap.Uint64("plan_id", req.PlanID),
				zap.Error(err))
		}
		return respondError(c, err)
	}
	status := http.StatusCreated
	if res.NextAction || res.Processing {
		status = http.StatusAccepted
	}
	return c.JSON(status, res)
}
