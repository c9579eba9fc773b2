package model

import "strings"

type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// USDT is the stablecoin quote asset used as the crypto/USD bridge.
const USDT = "USDT"

// NormalizeCurrency uppercases a raw query token. There is no validation
// against a currency list: codes unknown to every upstream simply fail to
// resolve and surface as unsupported-pair errors downstream.
func NormalizeCurrency(raw string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(raw)))
}

func (c Currency) String() string {
	return string(c)
}
