package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"currency-converter-service/internal/adapter/cache"
	"currency-converter-service/internal/domain/model"
	"currency-converter-service/internal/metrics"
	"currency-converter-service/pkg/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// BinanceClient fetches the full bulk ticker snapshot in a single call.
// On any failure it degrades to an empty book; lookups then miss and the
// router reports the pair as unsupported.
type BinanceClient struct {
	url        string
	httpClient *http.Client
	cache      *cache.Snapshot[model.PriceBook]
	group      singleflight.Group
	log        *logger.Logger
	metrics    *metrics.Metrics
}

type tickerEntry struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func NewBinanceClient(url string, timeout, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *BinanceClient {
	return &BinanceClient{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:   cache.NewSnapshot[model.PriceBook](ttl),
		log:     log,
		metrics: m,
	}
}

func (c *BinanceClient) Prices(ctx context.Context) model.PriceBook {
	if book, _, ok := c.cache.Fresh(); ok {
		return book
	}

	v, err, _ := c.group.Do("tickers", func() (interface{}, error) {
		// Detached so a departed caller cannot cancel a flight shared with
		// others; counters live here so they count fetches, not callers.
		book, err := c.fetchAll(context.WithoutCancel(ctx))
		if err != nil {
			c.metrics.UpstreamFetchesTotal.WithLabelValues("binance", metrics.OutcomeError).Inc()
			return nil, err
		}
		c.metrics.UpstreamFetchesTotal.WithLabelValues("binance", metrics.OutcomeSuccess).Inc()
		c.cache.Store(book)
		return book, nil
	})
	if err != nil {
		c.log.Warn("bulk ticker fetch failed", "error", err)
		return model.PriceBook{}
	}

	return v.(model.PriceBook)
}

func (c *BinanceClient) fetchAll(ctx context.Context) (model.PriceBook, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ticker endpoint returned non-OK status: %d", resp.StatusCode)
	}

	var entries []tickerEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode ticker response: %w", err)
	}

	book := make(model.PriceBook, len(entries))
	for _, entry := range entries {
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			c.log.Debug("skipping unparsable ticker price", "symbol", entry.Symbol, "price", entry.Price)
			continue
		}
		book[entry.Symbol] = price
	}

	return book, nil
}
