package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Stored money columns are DECIMAL(14,2) and counts are INT.
const (
	MoneyScale  = 2
	MaxQuantity = math.MaxInt32
)

// MaxMoney is the first amount a DECIMAL(14,2) column cannot hold.
var MaxMoney = decimal.New(1, 12)

// checkMoney rejects amounts that would be rounded or overflow on store.
func checkMoney(field string, d decimal.Decimal) error {
	switch {
	case !d.IsPositive():
		return InvalidArgumentf("%s must be greater than 0", field)
	case d.Exponent() < -MoneyScale && !d.Equal(d.Round(MoneyScale)):
		return InvalidArgumentf("%s cannot have more than %d decimal places", field, MoneyScale)
	case d.GreaterThanOrEqual(MaxMoney):
		return InvalidArgumentf("%s must be less than %s", field, MaxMoney.String())
	}
	return nil
}

func checkCount(field string, n int) error {
	switch {
	case n < 0:
		return InvalidArgumentf("%s cannot be negative", field)
	case n > MaxQuantity:
		return InvalidArgumentf("%s cannot exceed %d", field, MaxQuantity)
	}
	return nil
}
