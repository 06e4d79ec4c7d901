package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidBundle is returned when a bundle has no sessions.
var ErrInvalidBundle = errors.New("bundle must contain at least one session")

// BundleQuote is the preview shown next to a bundle configuration.
type BundleQuote struct {
	Sessions          int    `json:"sessions"`
	FullPriceCents    int64  `json:"full_price_cents"`
	BundlePriceCents  int64  `json:"bundle_price_cents"`
	SavingsCents      int64  `json:"savings_cents"`
	PerSessionCents   int64  `json:"per_session_cents"`
	DiscountPercent   int    `json:"discount_percent"`
	PerSessionDisplay string `json:"per_session_display"`
	SavingsDisplay    string `json:"savings_display"`
}

// QuoteBundle compares buying sessions individually at sessionPriceCents
// with the bundle price.  Savings may be negative when the bundle costs more
// than the individual sessions.  The per-session price is rounded half up.
func QuoteBundle(sessionPriceCents int64, sessions int, bundlePriceCents int64) (BundleQuote, error) {
	if sessions <= 0 {
		return BundleQuote{}, ErrInvalidBundle
	}
	full := sessionPriceCents * int64(sessions)
	q := BundleQuote{
		Sessions:         sessions,
		FullPriceCents:   full,
		BundlePriceCents: bundlePriceCents,
		SavingsCents:     full - bundlePriceCents,
		PerSessionCents:  divRound(bundlePriceCents, int64(sessions)),
	}
	if full > 0 {
		q.DiscountPercent = int(divRound(q.SavingsCents*100, full))
	}
	q.PerSessionDisplay = FormatCents(q.PerSessionCents)
	q.SavingsDisplay = FormatCents(q.SavingsCents)
	return q, nil
}

// PackageQuote previews a package composed of several services.
type PackageQuote struct {
	ComponentsCents   int64 `json:"components_cents"`
	PackagePriceCents int64 `json:"package_price_cents"`
	SavingsCents      int64 `json:"savings_cents"`
}

// QuotePackage sums the included service prices and compares them with the
// package price.
func QuotePackage(componentPrices []int64, packagePriceCents int64) PackageQuote {
	var sum int64
	for _, p := range componentPrices {
		sum += p
	}
	return PackageQuote{
		ComponentsCents:   sum,
		PackagePriceCents: packagePriceCents,
		SavingsCents:      sum - packagePriceCents,
	}
}

// FormatCents renders an amount as a dollar string, e.g. 3000 -> "$30.00".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}

func divRound(n, d int64) int64 {
	if d == 0 {
		return 0
	}
	if (n < 0) != (d < 0) {
		return -((abs(n) + abs(d)/2) / abs(d))
	}
	return (abs(n) + abs(d)/2) / abs(d)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
