package currency

import (
	"database/sql/driver"
	"errors"
)

type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyRUB Currency = "RUB"
)

var ErrInvalidCurrency = errors.New("invalid currency")

func (c Currency) String() string {
	return string(c)
}

func (c Currency) Value() (driver.Value, error) {
	return c.String(), nil
}

// MinorUnitExponent returns the number of decimal places of the currency's smallest unit
// (paise, cents, kopecks).
func (c Currency) MinorUnitExponent() int32 {
	return 2
}

func ParseCurrency(s string) (Currency, error) {
	switch s {
	case CurrencyINR.String():
		return CurrencyINR, nil
	case CurrencyUSD.String():
		return CurrencyUSD, nil
	case CurrencyRUB.String():
		return CurrencyRUB, nil
	default:
		return "", ErrInvalidCurrency
	}
}
