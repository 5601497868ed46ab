// Package fees resolves the effective monthly fee for an enrollment and
// handles conversion between RON amounts and their integer minor-unit (bani)
// representation. All persistence and comparison happens in minor units;
// decimals exist only at the API boundary.
package fees

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// minorScale is the number of minor units per major unit (bani per RON).
const minorScale = 100

// Source tags where a resolved fee came from.
type Source string

const (
	SourceEnrollmentOverride Source = "enrollment_override"
	SourceChildDefault       Source = "child_default"
	SourceNoFee              Source = "no_fee"
)

// EffectiveFee is the single resolved fee shape shared by every endpoint that
// reports a fee, instead of each handler re-deriving its own.
type EffectiveFee struct {
	AmountMinor int64  `json:"amountMinor"`
	Source      Source `json:"source"`
	Display     string `json:"display"`
}

// Pair is one (child default, enrollment override) input for batch resolution.
type Pair struct {
	ChildDefaultMinor int64
	OverrideMinor     *int64
}

// Resolve determines the fee billed for an enrollment: the enrollment
// override when present, the child default otherwise. A resolved amount of 0
// is tagged no_fee regardless of whether the default was explicitly
// configured as 0 or never set; the two are intentionally not distinguished.
func Resolve(childDefaultMinor int64, overrideMinor *int64) EffectiveFee {
	if overrideMinor != nil {
		return EffectiveFee{
			AmountMinor: *overrideMinor,
			Source:      SourceEnrollmentOverride,
			Display:     FormatDisplay(*overrideMinor),
		}
	}
	source := SourceChildDefault
	if childDefaultMinor == 0 {
		source = SourceNoFee
	}
	return EffectiveFee{
		AmountMinor: childDefaultMinor,
		Source:      source,
		Display:     FormatDisplay(childDefaultMinor),
	}
}

// ResolveBatch resolves each pair independently, preserving input order.
func ResolveBatch(pairs []Pair) []EffectiveFee {
	results := make([]EffectiveFee, len(pairs))
	for i, p := range pairs {
		results[i] = Resolve(p.ChildDefaultMinor, p.OverrideMinor)
	}
	return results
}

// ToMinorUnits converts a RON amount to bani. It rejects negative amounts and
// amounts carrying more than two decimal places, since those cannot be stored
// without silently losing precision.
func ToMinorUnits(major decimal.Decimal) (int64, error) {
	if major.IsNegative() {
		return 0, &ValidationError{Field: "amount", Reason: "amount cannot be negative"}
	}
	scaled := major.Mul(decimal.NewFromInt(minorScale))
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, &ValidationError{Field: "amount", Reason: "amount has more than two decimal places"}
	}
	return scaled.IntPart(), nil
}

// ToMajorUnits converts bani back to RON. Division by the scale is exact, so
// the round trip through ToMinorUnits loses nothing.
func ToMajorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// ValidateBounds applies the single domain rule for fee amounts: not negative
// and not above the configured ceiling. It must run at every mutation entry
// point, because the JSON API is reachable without the admin forms.
func ValidateBounds(amountMinor, maxMinor int64) error {
	if amountMinor < 0 {
		return &FeeOutOfRangeError{AmountMinor: amountMinor, MaxMinor: maxMinor,
			reason: "monthly fee cannot be negative"}
	}
	if amountMinor > maxMinor {
		return &FeeOutOfRangeError{AmountMinor: amountMinor, MaxMinor: maxMinor,
			reason: fmt.Sprintf("monthly fee cannot exceed %s RON", groupThousands(maxMinor/minorScale))}
	}
	return nil
}

// NoFeeDisplay is what a resolved fee of zero renders as, instead of "0 RON".
const NoFeeDisplay = "Gratuit"

// FormatDisplay renders a minor-unit amount for humans: "1,500 RON",
// "1,499.50 RON", or the distinguished no-fee string for zero.
func FormatDisplay(amountMinor int64) string {
	if amountMinor == 0 {
		return NoFeeDisplay
	}
	major := amountMinor / minorScale
	cents := amountMinor % minorScale
	if cents == 0 {
		return groupThousands(major) + " RON"
	}
	return fmt.Sprintf("%s.%02d RON", groupThousands(major), cents)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var groups []string
	for len(s) > 3 {
		groups = append([]string{s[len(s)-3:]}, groups...)
		s = s[:len(s)-3]
	}
	groups = append([]string{s}, groups...)
	return strings.Join(groups, ",")
}
