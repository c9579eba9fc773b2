package utils

import "github.com/shopspring/decimal"

// ResultDigits is the number of fractional digits in every numeric field
// of a conversion response.
const ResultDigits = 8

func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(ResultDigits)
}
