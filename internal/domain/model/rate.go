package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Chained rate compositions divide before multiplying; 16 digits of
// division precision would leak into the 8-digit fixed output.
func init() {
	decimal.DivisionPrecision = 28
}

// Via identifies which provider combination produced a conversion.
type Via string

const (
	ViaDirect       Via = "direct"
	ViaUSDT         Via = "USDT"
	ViaBinance      Via = "binance"
	ViaBinanceYahoo Via = "binance+yahoo"
	ViaBinanceECB   Via = "binance+ecb"
	ViaYahooBinance Via = "yahoo+binance"
	ViaECBBinance   Via = "ecb+binance"
	ViaYahoo        Via = "yahoo"
	ViaECB          Via = "ecb"
)

// FiatBasket is the EUR-denominated rate table: units of each currency per
// 1 EUR, with EUR itself mapped to 1. It is also the authority on fiat
// membership; a code absent from the basket is treated as crypto.
type FiatBasket struct {
	Rates     map[Currency]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                    `json:"fetched_at"`
	// Stale marks a basket served from an expired cache after a failed
	// refresh attempt.
	Stale bool `json:"stale"`
}

func (b *FiatBasket) IsFiat(c Currency) bool {
	_, ok := b.Rates[c]
	return ok
}

func (b *FiatBasket) Rate(c Currency) (decimal.Decimal, bool) {
	r, ok := b.Rates[c]
	return r, ok
}

// PriceBook maps a concatenated base+quote ticker symbol (e.g. "BTCUSDT")
// to its last traded price.
type PriceBook map[string]decimal.Decimal

// Price looks up a symbol. A zero price is reported as absent; upstream
// publishes zero for halted or delisted symbols and a zero rate is useless
// for conversion.
func (p PriceBook) Price(symbol string) (decimal.Decimal, bool) {
	price, ok := p[symbol]
	if !ok || price.IsZero() {
		return decimal.Decimal{}, false
	}
	return price, true
}

type ConversionRequest struct {
	From   Currency        `json:"from"`
	To     Currency        `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// ConversionResult is the wire shape of a successful conversion. The
// decimal fields serialize as fixed-point strings with 8 fractional
// digits, never as binary floats.
type ConversionResult struct {
	From      Currency `json:"from"`
	To        Currency `json:"to"`
	Amount    string   `json:"amount"`
	Rate      string   `json:"rate"`
	Converted string   `json:"converted"`
	Via       Via      `json:"via"`
}
