package fx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestConvertParsesResult(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result": 3800}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	result, err := client.Convert(context.Background(), "usd", "uah", dec("100"))
	require.NoError(t, err)
	assert.True(t, result.Equal(dec("3800")))
	assert.Equal(t, "amount=100&from=usd&to=uah", gotQuery)
}

func TestConvertNon200IsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	_, err := client.Convert(context.Background(), "usd", "uah", dec("100"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestConvertUsesCachedRate(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"result": 76}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, cache)

	first, err := client.Convert(context.Background(), "usd", "uah", dec("2"))
	require.NoError(t, err)
	assert.True(t, first.Equal(dec("76")))

	// Second call for the same pair hits the cached rate 38.
	second, err := client.Convert(context.Background(), "usd", "uah", dec("10"))
	require.NoError(t, err)
	assert.True(t, second.Equal(dec("380")))
	assert.Equal(t, 1, calls)
}

func TestCacheExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	cache.StoreRate(context.Background(), "usd", "uah", dec("38"))
	rate, ok := cache.Rate(context.Background(), "usd", "uah")
	require.True(t, ok)
	assert.True(t, rate.Equal(dec("38")))

	mr.FastForward(2 * time.Minute)
	_, ok = cache.Rate(context.Background(), "usd", "uah")
	assert.False(t, ok)
}
