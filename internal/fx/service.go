package fx

import (
	"fmt"
	"math"
	"sort"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Conversion is the result of turning an amount in some currency into base units.
type Conversion struct {
	Currency   domain.Currency
	Rate       decimal.Decimal
	Amount     int64
	BaseAmount int64
}

type Rate struct {
	Currency domain.Currency `json:"currency"`
	Rate     string          `json:"rate"`
}

type RateTable struct {
	rates map[domain.Currency]decimal.Decimal
}

var maxBaseAmount = decimal.NewFromInt(math.MaxInt64)

func NewRateTable() *RateTable {
	return &RateTable{
		rates: map[domain.Currency]decimal.Decimal{
			domain.CurrencyAMD: decimal.NewFromInt(1),
			domain.CurrencyUSD: decimal.NewFromInt(483),
		},
	}
}

func (t *RateTable) GetRate(code domain.Currency) (decimal.Decimal, error) {
	rate, ok := t.rates[code]
	if !ok {
		return decimal.Zero, fmt.Errorf("GetRate: %q: %w", code, domain.ErrUnsupportedCurrency)
	}
	return rate, nil
}

func (t *RateTable) Convert(code domain.Currency, amount int64) (*Conversion, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("Convert: %w", domain.ErrInvalidAmount)
	}

	rate, err := t.GetRate(code)
	if err != nil {
		return nil, fmt.Errorf("Convert: %w", err)
	}

	base := decimal.NewFromInt(amount).Mul(rate).Round(0)
	if base.GreaterThan(maxBaseAmount) {
		return nil, fmt.Errorf("Convert: base amount overflows: %w", domain.ErrInvalidAmount)
	}
	if base.LessThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("Convert: base amount rounds to zero: %w", domain.ErrInvalidAmount)
	}

	return &Conversion{
		Currency:   code,
		Rate:       rate,
		Amount:     amount,
		BaseAmount: base.IntPart(),
	}, nil
}

func (t *RateTable) Rates() []Rate {
	out := make([]Rate, 0, len(t.rates))
	for code, rate := range t.rates {
		out = append(out, Rate{Currency: code, Rate: rate.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
