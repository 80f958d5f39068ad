package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medipause/certserve/model"
)

func dateRange(t *testing.T, start, end string) *model.DateRange {
	t.Helper()
	s, err := time.Parse(model.DateFormat, start)
	require.NoError(t, err)
	e, err := time.Parse(model.DateFormat, end)
	require.NoError(t, err)
	return &model.DateRange{Start: s, End: e}
}

func TestPriceBaseOnly(t *testing.T) {
	rng := dateRange(t, "10/03/2025", "12/03/2025") // 3 days, no tier
	assert.Equal(t, int64(2999), Price(model.PricingOptions{}, rng))
}

func TestPriceOptionsAccumulate(t *testing.T) {
	rng := dateRange(t, "10/03/2025", "10/03/2025")

	got := Price(model.PricingOptions{LongLeave: true, PastDate: true}, rng)
	// 29.99 + 4.99 + 4.99 = 39.97
	assert.Equal(t, int64(3997), got)

	all := Price(model.PricingOptions{
		LongLeave: true, PastDate: true, ComplexCase: true, Urgent: true, SSN: true,
	}, rng)
	assert.Equal(t, int64(2999+499+499+999+1499+499), all)
}

func TestPriceDurationTiers(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int64
	}{
		{"one day", "01/06/2025", "01/06/2025", 2999},
		{"three days upper bound of free tier", "01/06/2025", "03/06/2025", 2999},
		{"four days enters first tier", "01/06/2025", "04/06/2025", 2999 + 499},
		{"seven days stays in first tier", "01/06/2025", "07/06/2025", 2999 + 499},
		{"eight days enters second tier", "01/06/2025", "08/06/2025", 2999 + 999},
		{"fourteen days stays in second tier", "01/06/2025", "14/06/2025", 2999 + 999},
		{"fifteen days enters third tier", "01/06/2025", "15/06/2025", 2999 + 1499},
		{"a full month", "01/06/2025", "30/06/2025", 2999 + 1499},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := dateRange(t, tt.start, tt.end)
			assert.Equal(t, tt.want, Price(model.PricingOptions{}, rng))
		})
	}
}

func TestPriceNilRangeSkipsDurationSurcharge(t *testing.T) {
	assert.Equal(t, int64(2999), Price(model.PricingOptions{}, nil))
	assert.Equal(t, int64(2999+1499), Price(model.PricingOptions{Urgent: true}, nil))
}

func TestPriceDeterministic(t *testing.T) {
	opts := model.PricingOptions{ComplexCase: true, SSN: true}
	rng := dateRange(t, "05/01/2025", "20/01/2025")
	first := Price(opts, rng)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Price(opts, rng))
	}
}

func TestDurationSurchargeBoundaries(t *testing.T) {
	assert.Equal(t, int64(0), DurationSurcharge(1))
	assert.Equal(t, int64(0), DurationSurcharge(3))
	assert.Equal(t, Tier1Cents, DurationSurcharge(4))
	assert.Equal(t, Tier1Cents, DurationSurcharge(7))
	assert.Equal(t, Tier2Cents, DurationSurcharge(8))
	assert.Equal(t, Tier2Cents, DurationSurcharge(14))
	assert.Equal(t, Tier3Cents, DurationSurcharge(15))
	assert.Equal(t, Tier3Cents, DurationSurcharge(365))
}

func TestParseEuros(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"39.97", 3997},
		{"29.99", 2999},
		{"0", 0},
		{"100", 10000},
		{" 12.50 ", 1250},
		{"12.505", 1251}, // rounds half-up
		{"12.345", 1235}, // a tie that float64 would round down
		{"0.005", 1},
		{"12.344", 1234},
		{"12.3", 1230},
		{"12.", 1200},
		{".50", 50},
	}
	for _, tt := range tests {
		got, err := ParseEuros(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseEuros("")
	assert.Error(t, err)
	_, err = ParseEuros("abc")
	assert.Error(t, err)
	_, err = ParseEuros("-1")
	assert.Error(t, err)
	_, err = ParseEuros("-0.50")
	assert.Error(t, err)
	_, err = ParseEuros("12.4x")
	assert.Error(t, err)
}

func TestFormatEuros(t *testing.T) {
	assert.Equal(t, "39.97", FormatEuros(3997))
	assert.Equal(t, "29.99", FormatEuros(2999))
	assert.Equal(t, "30.00", FormatEuros(3000))
	assert.Equal(t, "0.05", FormatEuros(5))
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 2999, 3997, 123456} {
		got, err := ParseEuros(FormatEuros(cents))
		require.NoError(t, err)
		assert.Equal(t, cents, got)
	}
}

func TestDateRangeDays(t *testing.T) {
	assert.Equal(t, 1, dateRange(t, "10/03/2025", "10/03/2025").Days())
	assert.Equal(t, 2, dateRange(t, "10/03/2025", "11/03/2025").Days())
	// Inverted ranges clamp to a single day; the validator rejects them
	// before pricing is ever asked about one.
	assert.Equal(t, 1, dateRange(t, "11/03/2025", "10/03/2025").Days())
}
