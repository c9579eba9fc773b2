package ports

import (
	"context"

	"currency-converter-service/internal/domain/model"

	"github.com/shopspring/decimal"
)

// FiatBasketProvider serves the EUR-denominated fiat rate table. Rates may
// return a stale basket after a failed refresh; it errors only when no
// basket has ever been fetched.
type FiatBasketProvider interface {
	Rates(ctx context.Context) (*model.FiatBasket, error)
	Refresh(ctx context.Context) error
}

// FiatPairProvider serves a direct pairwise fiat rate: quote units per one
// base unit. A false return means the source cannot answer right now and
// the caller must fall back; it is never fatal.
type FiatPairProvider interface {
	PairRate(ctx context.Context, base, quote model.Currency) (decimal.Decimal, bool)
}

// CryptoPriceProvider serves the full bulk ticker snapshot. A degraded
// upstream yields an empty book; lookups then miss and the caller reports
// the pair as unsupported.
type CryptoPriceProvider interface {
	Prices(ctx context.Context) model.PriceBook
}
