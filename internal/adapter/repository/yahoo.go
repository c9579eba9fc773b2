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

// YahooClient fetches direct pairwise fiat rates from the chart endpoint.
// Failures are reported as absence, never as an error: the router falls
// back to the basket when this source cannot answer.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	pairs      *cache.PairCache
	group      singleflight.Group
	log        *logger.Logger
	metrics    *metrics.Metrics
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice json.Number `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

func NewYahooClient(baseURL string, timeout, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *YahooClient {
	return &YahooClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		pairs:   cache.NewPairCache(ttl),
		log:     log,
		metrics: m,
	}
}

// pairSymbol builds the synthetic chart symbol for a currency pair.
func pairSymbol(base, quote model.Currency) string {
	return string(base) + string(quote) + "=X"
}

func (c *YahooClient) PairRate(ctx context.Context, base, quote model.Currency) (decimal.Decimal, bool) {
	symbol := pairSymbol(base, quote)

	if rate, ok := c.pairs.Get(symbol); ok {
		return rate, !rate.IsZero()
	}

	v, err, _ := c.group.Do(symbol, func() (interface{}, error) {
		// Detached so a departed caller cannot cancel a flight shared with
		// others; counters live here so they count fetches, not callers.
		rate, err := c.fetchPair(context.WithoutCancel(ctx), symbol)
		if err != nil {
			c.metrics.UpstreamFetchesTotal.WithLabelValues("yahoo", metrics.OutcomeError).Inc()
			return decimal.Decimal{}, err
		}
		c.metrics.UpstreamFetchesTotal.WithLabelValues("yahoo", metrics.OutcomeSuccess).Inc()
		c.pairs.Put(symbol, rate)
		return rate, nil
	})
	if err != nil {
		c.log.Warn("pair rate fetch failed", "symbol", symbol, "error", err)
		return decimal.Decimal{}, false
	}

	rate := v.(decimal.Decimal)
	return rate, !rate.IsZero()
}

func (c *YahooClient) fetchPair(ctx context.Context, symbol string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("chart endpoint returned non-OK status: %d", resp.StatusCode)
	}

	var chart yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if len(chart.Chart.Result) == 0 {
		return decimal.Decimal{}, fmt.Errorf("chart response contained no result for %s", symbol)
	}

	price := chart.Chart.Result[0].Meta.RegularMarketPrice
	if price == "" {
		return decimal.Decimal{}, fmt.Errorf("chart response missing market price for %s", symbol)
	}

	rate, err := decimal.NewFromString(price.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unparsable market price %q for %s: %w", price, symbol, err)
	}

	return rate, nil
}
