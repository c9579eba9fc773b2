package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, Currency("BTC"), NormalizeCurrency(" btc "))
	assert.Equal(t, Currency("EUR"), NormalizeCurrency("eur"))
	assert.Equal(t, Currency(""), NormalizeCurrency(""))
}

func TestPriceBook_ZeroPriceIsAbsent(t *testing.T) {
	book := PriceBook{
		"BTCUSDT":  decimal.RequireFromString("60000"),
		"HALTUSDT": decimal.Decimal{},
	}

	price, ok := book.Price("BTCUSDT")
	assert.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("60000")))

	_, ok = book.Price("HALTUSDT")
	assert.False(t, ok)

	_, ok = book.Price("ETHUSDT")
	assert.False(t, ok)
}

func TestFiatBasket_Membership(t *testing.T) {
	basket := &FiatBasket{
		Rates: map[Currency]decimal.Decimal{
			EUR: decimal.NewFromInt(1),
			USD: decimal.RequireFromString("1.08"),
		},
	}

	assert.True(t, basket.IsFiat(USD))
	assert.False(t, basket.IsFiat("BTC"))

	rate, ok := basket.Rate(USD)
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.08")))
}
