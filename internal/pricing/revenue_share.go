// Package pricing holds the client-side derived price computations shown
// while a service is being configured: revenue share allocation and bundle
// or package previews.  All amounts are integer minor units (cents).
package pricing

import "github.com/iliyamo/practitioner-marketplace/internal/model"

// MaxSharePercent is the total percentage available for allocation.
const MaxSharePercent = 100

// Allocation is the outcome of distributing shares across the primary
// practitioner and the additional ones.
type Allocation struct {
	Shares         []model.RevenueShare `json:"shares"`
	AdditionalSum  int                  `json:"additional_sum"`
	PrimaryPercent int                  `json:"primary_percent"`
	CanSave        bool                 `json:"can_save"`
}

// SumShares returns the summed percentage of the additional practitioners.
func SumShares(shares []model.RevenueShare) int {
	total := 0
	for _, s := range shares {
		total += s.Percent
	}
	return total
}

// CanSave reports whether the additional shares fit into 100%.
func CanSave(shares []model.RevenueShare) bool {
	for _, s := range shares {
		if s.Percent < 0 {
			return false
		}
	}
	return SumShares(shares) <= MaxSharePercent
}

// SetShare returns a copy of shares with entry i set to percent, clamped so
// the sum of all entries never exceeds MaxSharePercent.  Negative input is
// treated as zero.
func SetShare(shares []model.RevenueShare, i int, percent int) []model.RevenueShare {
	out := append([]model.RevenueShare(nil), shares...)
	if i < 0 || i >= len(out) {
		return out
	}
	others := SumShares(out) - out[i].Percent
	out[i].Percent = clamp(percent, 0, MaxSharePercent-others)
	return out
}

// Distribute clamps every entry in order against the capacity left by the
// entries before it.  With inputs 60 and 50 the second entry becomes 40.
func Distribute(shares []model.RevenueShare) Allocation {
	return DistributeWithin(shares, MaxSharePercent)
}

// DistributeWithin is Distribute with a smaller pool, used when part of the
// total is already held by other entries.
func DistributeWithin(shares []model.RevenueShare, capacity int) Allocation {
	capacity = clamp(capacity, 0, MaxSharePercent)
	out := make([]model.RevenueShare, len(shares))
	used := 0
	for i, s := range shares {
		s.Percent = clamp(s.Percent, 0, capacity-used)
		used += s.Percent
		out[i] = s
	}
	return Allocation{
		Shares:         out,
		AdditionalSum:  used,
		PrimaryPercent: MaxSharePercent - used,
		CanSave:        true,
	}
}

// Evaluate reports the allocation of shares as entered, without clamping.
func Evaluate(shares []model.RevenueShare) Allocation {
	sum := SumShares(shares)
	primary := MaxSharePercent - sum
	if primary < 0 {
		primary = 0
	}
	return Allocation{
		Shares:         append([]model.RevenueShare(nil), shares...),
		AdditionalSum:  sum,
		PrimaryPercent: primary,
		CanSave:        CanSave(shares),
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
