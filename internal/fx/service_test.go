package fx

import (
	"math"
	"testing"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRate(t *testing.T) {
	table := NewRateTable()

	tests := []struct {
		name     string
		code     domain.Currency
		wantRate string
		wantErr  error
	}{
		{name: "base currency", code: domain.CurrencyAMD, wantRate: "1"},
		{name: "USD", code: domain.CurrencyUSD, wantRate: "483"},
		{name: "unknown code", code: domain.Currency("EUR"), wantErr: domain.ErrUnsupportedCurrency},
		{name: "lowercase is not normalised", code: domain.Currency("usd"), wantErr: domain.ErrUnsupportedCurrency},
		{name: "empty", code: domain.Currency(""), wantErr: domain.ErrUnsupportedCurrency},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rate, err := table.GetRate(tc.code)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, rate.Equal(decimal.RequireFromString(tc.wantRate)),
				"rate: got %s, want %s", rate, tc.wantRate)
		})
	}
}

func TestConvert(t *testing.T) {
	table := NewRateTable()

	tests := []struct {
		name     string
		code     domain.Currency
		amount   int64
		wantBase int64
		wantErr  error
	}{
		{name: "AMD passthrough", code: domain.CurrencyAMD, amount: 150, wantBase: 150},
		{name: "USD multiplied by rate", code: domain.CurrencyUSD, amount: 10, wantBase: 4830},
		{name: "zero amount", code: domain.CurrencyAMD, amount: 0, wantErr: domain.ErrInvalidAmount},
		{name: "negative amount", code: domain.CurrencyUSD, amount: -5, wantErr: domain.ErrInvalidAmount},
		{name: "overflow", code: domain.CurrencyUSD, amount: math.MaxInt64 / 2, wantErr: domain.ErrInvalidAmount},
		{name: "unsupported currency", code: domain.Currency("GBP"), amount: 10, wantErr: domain.ErrUnsupportedCurrency},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conv, err := table.Convert(tc.code, tc.amount)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantBase, conv.BaseAmount)
			assert.Equal(t, tc.amount, conv.Amount)
			assert.Equal(t, tc.code, conv.Currency)
			assert.True(t, conv.Rate.Mul(decimal.NewFromInt(tc.amount)).Equal(decimal.NewFromInt(conv.BaseAmount)))
		})
	}
}

func TestRates(t *testing.T) {
	rates := NewRateTable().Rates()
	require.Len(t, rates, 2)
	assert.Equal(t, Rate{Currency: domain.CurrencyAMD, Rate: "1"}, rates[0])
	assert.Equal(t, Rate{Currency: domain.CurrencyUSD, Rate: "483"}, rates[1])
}
