package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"currency-converter-service/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartBody(price string) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"regularMarketPrice":%s}}]}}`, price)
}

func TestYahooClient_FetchesPairRate(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(chartBody("0.9234")))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, time.Second, 10*time.Second, testLog, testMetrics)

	rate, ok := client.PairRate(context.Background(), "USD", "EUR")
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.9234")))
	assert.Equal(t, "/USDEUR=X", gotPath)
}

func TestYahooClient_ServesCacheWithinTTL(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(chartBody("0.9234")))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, time.Second, 10*time.Second, testLog, testMetrics)

	_, ok := client.PairRate(context.Background(), "USD", "EUR")
	require.True(t, ok)
	_, ok = client.PairRate(context.Background(), "USD", "EUR")
	require.True(t, ok)

	assert.Equal(t, int32(1), calls.Load(), "second read within TTL must not refetch")
}

// Fetching a second pair renews the shared freshness clock, so the first
// pair keeps being served from cache past its own fetch age.
func TestYahooClient_SharedFreshnessAcrossPairs(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(chartBody("1.25")))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, time.Second, 80*time.Millisecond, testLog, testMetrics)

	_, ok := client.PairRate(context.Background(), "USD", "EUR")
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)

	_, ok = client.PairRate(context.Background(), "USD", "GBP")
	require.True(t, ok)
	require.Equal(t, int32(2), calls.Load())

	time.Sleep(50 * time.Millisecond)

	// 100ms after its own fetch, but only 50ms after the shared clock
	// was last bumped.
	_, ok = client.PairRate(context.Background(), "USD", "EUR")
	require.True(t, ok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestYahooClient_DegradesToAbsent(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-OK status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "empty result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"chart":{"result":[]}}`))
			},
		},
		{
			name: "missing price field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"chart":{"result":[{"meta":{}}]}}`))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			client := NewYahooClient(server.URL, time.Second, 10*time.Second, testLog, testMetrics)

			_, ok := client.PairRate(context.Background(), "USD", "EUR")
			assert.False(t, ok)
		})
	}
}

func TestYahooClient_FetchSurvivesCancelledCaller(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody("0.9234")))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, time.Second, 10*time.Second, testLog, testMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rate, ok := client.PairRate(ctx, "USD", "EUR")
	require.True(t, ok, "an already-cancelled caller must not cancel the fetch")
	assert.True(t, rate.Equal(decimal.RequireFromString("0.9234")))
}

func TestYahooClient_CountsFetchesNotCallers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody("0.9234")))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, time.Second, 10*time.Second, testLog, testMetrics)
	success := testMetrics.UpstreamFetchesTotal.WithLabelValues("yahoo", metrics.OutcomeSuccess)
	before := testutil.ToFloat64(success)

	_, ok := client.PairRate(context.Background(), "USD", "EUR")
	require.True(t, ok)
	_, ok = client.PairRate(context.Background(), "USD", "EUR")
	require.True(t, ok)

	assert.Equal(t, before+1, testutil.ToFloat64(success), "cached reads must not count as fetches")
}

func TestYahooClient_ZeroRateIsAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody("0")))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL, time.Second, 10*time.Second, testLog, testMetrics)

	_, ok := client.PairRate(context.Background(), "USD", "EUR")
	assert.False(t, ok)
}
