// Package handler contains the echo HTTP handlers.  Handlers translate
// package sentinel errors into status codes in one place (respondError).
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/practitioner-marketplace/internal/billing"
	"github.com/iliyamo/practitioner-marketplace/internal/editor"
	"github.com/iliyamo/practitioner-marketplace/internal/middleware"
	"github.com/iliyamo/practitioner-marketplace/internal/model"
	"github.com/iliyamo/practitioner-marketplace/internal/pricing"
	"github.com/iliyamo/practitioner-marketplace/internal/repository"
)

// requestTimeout bounds the database and provider calls of one request.
const requestTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID returns the authenticated user or a 401 error.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	return id, nil
}

// paramID parses a positive integer path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// statusFor maps an error to an HTTP status and a client message.
// Unrecognised errors are reported as 500 without their text.
func statusFor(err error) (int, string) {
	var (
		httpErr *echo.HTTPError
		payErr  *billing.PaymentError
	)
	switch {
	case errors.As(err, &httpErr):
		msg, _ := httpErr.Message.(string)
		if msg == "" {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, msg
	case errors.As(err, &payErr):
		return http.StatusPaymentRequired, payErr.Message
	case errors.Is(err, editor.ErrSessionNotFound),
		errors.Is(err, editor.ErrUnknownSection),
		errors.Is(err, repository.ErrServiceNotFound),
		errors.Is(err, repository.ErrItemNotFound),
		errors.Is(err, repository.ErrPlanNotFound),
		errors.Is(err, repository.ErrSubscriptionNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, editor.ErrNotOwner),
		errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, editor.ErrNotReady),
		errors.Is(err, editor.ErrSaveInFlight),
		errors.Is(err, editor.ErrLayoutMismatch),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrEmailExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, editor.ErrInvalidPayload),
		errors.Is(err, model.ErrInvalidPatch),
		errors.Is(err, model.ErrInvalidService),
		errors.Is(err, pricing.ErrInvalidBundle):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, billing.ErrPaymentNotConfigured):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream timeout"
	}
	return http.StatusInternalServerError, "internal error"
}

// respondError writes the mapped error.  extra fields (such as the editor
// view after a failed save) are merged into the body.
func respondError(c echo.Context, err error, extra ...echo.Map) error {
	code, msg := statusFor(err)
	body := echo.Map{"error": msg}
	for _, m := range extra {
		for k, v := range m {
			body[k] = v
		}
	}
	return c.JSON(code, body)
}

func asPaymentError(err error) (*billing.PaymentError, bool) {
	var perr *billing.PaymentError
	ok := errors.As(err, &perr)
	return perr, ok
}
