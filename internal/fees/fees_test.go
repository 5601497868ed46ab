package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		childDefault int64
		override     *int64
		wantAmount   int64
		wantSource   Source
	}{
		{name: "no override uses child default", childDefault: 150000, wantAmount: 150000, wantSource: SourceChildDefault},
		{name: "override wins over default", childDefault: 150000, override: int64Ptr(120000), wantAmount: 120000, wantSource: SourceEnrollmentOverride},
		{name: "zero override is still an override", childDefault: 150000, override: int64Ptr(0), wantAmount: 0, wantSource: SourceEnrollmentOverride},
		{name: "zero default resolves to no fee", childDefault: 0, wantAmount: 0, wantSource: SourceNoFee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.childDefault, tt.override)
			assert.Equal(t, tt.wantAmount, got.AmountMinor)
			assert.Equal(t, tt.wantSource, got.Source)
		})
	}
}

// Clearing an override must revert the effective fee to the child default.
func TestResolveOverrideCleared(t *testing.T) {
	withOverride := Resolve(150000, int64Ptr(120000))
	assert.Equal(t, int64(120000), withOverride.AmountMinor)
	assert.Equal(t, SourceEnrollmentOverride, withOverride.Source)

	cleared := Resolve(150000, nil)
	assert.Equal(t, int64(150000), cleared.AmountMinor)
	assert.Equal(t, SourceChildDefault, cleared.Source)
}

func TestResolveBatchPreservesOrder(t *testing.T) {
	pairs := []Pair{
		{ChildDefaultMinor: 150000},
		{ChildDefaultMinor: 150000, OverrideMinor: int64Ptr(120000)},
		{ChildDefaultMinor: 0},
	}
	results := ResolveBatch(pairs)
	require.Len(t, results, 3)
	assert.Equal(t, SourceChildDefault, results[0].Source)
	assert.Equal(t, SourceEnrollmentOverride, results[1].Source)
	assert.Equal(t, SourceNoFee, results[2].Source)
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr string
	}{
		{name: "whole amount", input: "1500", want: 150000},
		{name: "two decimals", input: "1499.50", want: 149950},
		{name: "zero", input: "0", want: 0},
		{name: "negative rejected", input: "-100", wantErr: "negative"},
		{name: "sub-cent precision rejected", input: "10.005", wantErr: "decimal places"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinorMajorRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "0.01", "1", "1499.50", "1500", "9999.99"} {
		major := decimal.RequireFromString(s)
		minor, err := ToMinorUnits(major)
		require.NoError(t, err)
		assert.True(t, ToMajorUnits(minor).Equal(major), "round trip for %s", s)
	}
}

func TestValidateBounds(t *testing.T) {
	const maxMinor = 10_000 * 100

	assert.NoError(t, ValidateBounds(0, maxMinor))
	assert.NoError(t, ValidateBounds(maxMinor, maxMinor))

	err := ValidateBounds(maxMinor+1, maxMinor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceed 10,000")

	err = ValidateBounds(-1, maxMinor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestFormatDisplay(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{0, "Gratuit"},
		{150000, "1,500 RON"},
		{149950, "1,499.50 RON"},
		{5000, "50 RON"},
		{100000000, "1,000,000 RON"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDisplay(tt.minor))
	}
}
