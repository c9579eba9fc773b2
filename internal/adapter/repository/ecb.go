package repository

import (
	"context"
	"encoding/xml"
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

// ECBClient fetches the daily EUR reference basket. It serves a stale
// basket when a refresh fails and errors only when no basket has ever been
// fetched, since the basket doubles as the fiat-membership authority.
type ECBClient struct {
	url        string
	httpClient *http.Client
	cache      *cache.Snapshot[map[model.Currency]decimal.Decimal]
	group      singleflight.Group
	log        *logger.Logger
	metrics    *metrics.Metrics
}

type ecbEnvelope struct {
	Cubes []ecbCube `xml:"Cube>Cube>Cube"`
}

type ecbCube struct {
	Currency string `xml:"currency,attr"`
	Rate     string `xml:"rate,attr"`
}

func NewECBClient(url string, timeout, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *ECBClient {
	return &ECBClient{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:   cache.NewSnapshot[map[model.Currency]decimal.Decimal](ttl),
		log:     log,
		metrics: m,
	}
}

func (c *ECBClient) Rates(ctx context.Context) (*model.FiatBasket, error) {
	if rates, fetchedAt, ok := c.cache.Fresh(); ok {
		return &model.FiatBasket{Rates: rates, FetchedAt: fetchedAt}, nil
	}

	v, err, _ := c.group.Do("basket", func() (interface{}, error) {
		// The flight is shared across callers: a departed caller must not
		// cancel it or the cache stays cold for everyone. The client's own
		// timeout still bounds the fetch.
		rates, err := c.fetchBasket(context.WithoutCancel(ctx))
		if err != nil {
			c.metrics.UpstreamFetchesTotal.WithLabelValues("ecb", metrics.OutcomeError).Inc()
			c.log.Error("ECB basket fetch failed", "error", err)

			if stale, fetchedAt, ok := c.cache.Last(); ok {
				c.metrics.UpstreamFetchesTotal.WithLabelValues("ecb", metrics.OutcomeStale).Inc()
				c.log.Warn("serving stale ECB basket", "fetched_at", fetchedAt)
				return &model.FiatBasket{Rates: stale, FetchedAt: fetchedAt, Stale: true}, nil
			}
			return nil, err
		}

		c.cache.Store(rates)
		c.metrics.UpstreamFetchesTotal.WithLabelValues("ecb", metrics.OutcomeSuccess).Inc()
		return &model.FiatBasket{Rates: rates, FetchedAt: time.Now()}, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*model.FiatBasket), nil
}

// Refresh forces a fetch regardless of cache freshness. The startup and
// periodic warm-up loop uses it to keep the basket populated so requests
// rarely hit the uncached-failure path.
func (c *ECBClient) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		rates, err := c.fetchBasket(context.WithoutCancel(ctx))
		if err != nil {
			c.metrics.UpstreamFetchesTotal.WithLabelValues("ecb", metrics.OutcomeError).Inc()
			return nil, err
		}
		c.cache.Store(rates)
		c.metrics.UpstreamFetchesTotal.WithLabelValues("ecb", metrics.OutcomeSuccess).Inc()
		return nil, nil
	})
	return err
}

func (c *ECBClient) fetchBasket(ctx context.Context) (map[model.Currency]decimal.Decimal, error) {
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
		return nil, fmt.Errorf("ECB returned non-OK status: %d", resp.StatusCode)
	}

	var envelope ecbEnvelope
	if err := xml.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode basket document: %w", err)
	}

	rates := map[model.Currency]decimal.Decimal{
		model.EUR: decimal.NewFromInt(1),
	}
	for _, cube := range envelope.Cubes {
		rate, err := decimal.NewFromString(cube.Rate)
		if err != nil || rate.IsZero() {
			c.log.Warn("skipping unusable basket entry", "currency", cube.Currency, "rate", cube.Rate)
			continue
		}
		rates[model.Currency(cube.Currency)] = rate
	}

	if len(rates) == 1 {
		return nil, fmt.Errorf("basket document contained no rates")
	}

	return rates, nil
}
