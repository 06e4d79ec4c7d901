package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
	"github.com/iliyamo/practitioner-marketplace/internal/pricing"
)

type bundleReq struct {
	SessionPriceCents int64 `json:"session_price_cents"`
	Sessions          int   `json:"sessions"`
	BundlePriceCents  int64 `json:"bundle_price_cents"`
}

type packageReq struct {
	ComponentPricesCents []int64 `json:"component_prices_cents"`
	PackagePriceCents    int64   `json:"package_price_cents"`
}

type sharesReq struct {
	Shares []model.RevenueShare `json:"shares"`
	// Clamp distributes the entries in order so their sum never exceeds
	// 100; without it the entries are reported as entered.
	Clamp bool `json:"clamp"`
}

// BundlePreview quotes a bundle against buying the sessions one by one.
func BundlePreview(c echo.Context) error {
	var req bundleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	q, err := pricing.QuoteBundle(req.SessionPriceCents, req.Sessions, req.BundlePriceCents)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// PackagePreview compares a package price with its components.
func PackagePreview(c echo.Context) error {
	var req packageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return c.JSON(http.StatusOK, pricing.QuotePackage(req.ComponentPricesCents, req.PackagePriceCents))
}

// RevenueSharePreview reports the primary practitioner's remainder and
// whether the shares may be saved.
func RevenueSharePreview(c echo.Context) error {
	var req sharesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Clamp {
		return c.JSON(http.StatusOK, pricing.Distribute(req.Shares))
	}
	return c.JSON(http.StatusOK, pricing.Evaluate(req.Shares))
}
