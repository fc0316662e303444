package domain

type Currency string

const (
	CurrencyAMD Currency = "AMD"
	CurrencyUSD Currency = "USD"
)

// BaseCurrency is the unit balances are stored in.
const BaseCurrency = CurrencyAMD
