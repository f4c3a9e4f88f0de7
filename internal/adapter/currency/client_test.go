package currency

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateServer(t *testing.T, krw string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Contains(t, r.URL.Path, "test-key")
		_, _ = fmt.Fprintf(w, `{"result":"success","conversion_rates":{"KRW":%s,"EUR":0.92}}`, krw)
	}))
}

func newClient(serverURL string, opts ...func(*Config)) *Client {
	cfg := Config{
		APIKey: "test-key",
		APIURL: serverURL + "/v6/%s/latest/USD",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewClient(cfg)
}

func TestConvertUSDToKRW_ZeroSkipsNetwork(t *testing.T) {
	hits := &atomic.Int32{}
	server := rateServer(t, "1333.5", hits)
	defer server.Close()

	client := newClient(server.URL)
	result, err := client.ConvertUSDToKRW(context.Background(), decimal.Zero)

	require.NoError(t, err)
	assert.True(t, result.IsZero())
	assert.Equal(t, int32(0), hits.Load())
}

func TestConvertUSDToKRW_RoundsHalfUpToWholeWon(t *testing.T) {
	hits := &atomic.Int32{}
	server := rateServer(t, "1333.5", hits)
	defer server.Close()

	client := newClient(server.URL)
	result, err := client.ConvertUSDToKRW(context.Background(), decimal.RequireFromString("1.50"))

	require.NoError(t, err)
	// 1.50 * 1333.5 = 2000.25 -> 2000
	assert.Equal(t, "2000", result.String())
}

func TestConvertUSDToKRW_FallsBackToDefaultRateOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newClient(server.URL)
	result, err := client.ConvertUSDToKRW(context.Background(), decimal.NewFromInt(2))

	require.NoError(t, err)
	assert.Equal(t, "2600", result.String()) // 2 * default 1300
}

func TestConvertUSDToKRW_FallsBackOnMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "oops"},
		{name: "missing KRW", body: `{"conversion_rates":{"EUR":0.92}}`},
		{name: "empty object", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newClient(server.URL)
			result, err := client.ConvertUSDToKRW(context.Background(), decimal.NewFromInt(1))

			require.NoError(t, err)
			assert.Equal(t, "1300", result.String())
		})
	}
}

func TestConvertUSDToKRW_FallsBackWhenUnreachable(t *testing.T) {
	server := rateServer(t, "1333.5", &atomic.Int32{})
	server.Close()

	client := newClient(server.URL)
	result, err := client.ConvertUSDToKRW(context.Background(), decimal.NewFromInt(1))

	require.NoError(t, err)
	assert.Equal(t, "1300", result.String())
}

func TestConvertUSDToKRW_MissingAPIKeyUsesDefaultRate(t *testing.T) {
	hits := &atomic.Int32{}
	server := rateServer(t, "1333.5", hits)
	defer server.Close()

	client := NewClient(Config{APIURL: server.URL + "/v6/%s/latest/USD"})
	result, err := client.ConvertUSDToKRW(context.Background(), decimal.NewFromInt(1))

	require.NoError(t, err)
	assert.Equal(t, "1300", result.String())
	assert.Equal(t, int32(0), hits.Load())
}

func TestConvertUSDToKRW_CachesRateWithinTTL(t *testing.T) {
	hits := &atomic.Int32{}
	server := rateServer(t, "1400", hits)
	defer server.Close()

	current := time.Unix(1_700_000_000, 0)
	client := newClient(server.URL, func(cfg *Config) {
		cfg.CacheTTL = time.Minute
		cfg.Now = func() time.Time { return current }
	})

	for i := 0; i < 3; i++ {
		_, err := client.ConvertUSDToKRW(context.Background(), decimal.NewFromInt(1))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())

	// Advance past the TTL; the next call refreshes.
	current = current.Add(2 * time.Minute)
	_, err := client.ConvertUSDToKRW(context.Background(), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestConvertUSDToKRW_CustomDefaultRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newClient(server.URL, func(cfg *Config) {
		cfg.DefaultRate = decimal.NewFromInt(1500)
	})
	result, err := client.ConvertUSDToKRW(context.Background(), decimal.NewFromInt(3))

	require.NoError(t, err)
	assert.Equal(t, "4500", result.String())
}
