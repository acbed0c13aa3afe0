package geoip

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/json/%s")
}

func TestLocate_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/8.8.8.8", r.URL.Path)
		w.Header().Set("X-Rl", "44")
		w.Header().Set("X-Ttl", "60")
		_, _ = w.Write([]byte(`{"status":"success","country":"United States","countryCode":"US","region":"VA","regionName":"Virginia","city":"Ashburn","lat":39.03,"lon":-77.5,"isp":"Google LLC","org":"Google Public DNS"}`))
	})

	info, err := c.Locate(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "US", info.CountryCode)
	assert.Equal(t, "Ashburn", info.City)
	assert.InDelta(t, 39.03, info.Lat, 0.001)
	assert.Equal(t, "Google LLC", info.ISP)
}

func TestLocate_FailStatusIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
	})

	info, err := c.Locate(context.Background(), "100.64.0.1")
	require.NoError(t, err)
	assert.True(t, info.IsEmpty())
}

func TestLocate_TooManyRequests(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ttl", "42")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	info, err := c.Locate(context.Background(), "1.1.1.1")
	var throttled *ThrottledError
	require.True(t, errors.As(err, &throttled))
	assert.Equal(t, 42*time.Second, throttled.RetryAfter())
	assert.True(t, info.IsEmpty())
}

func TestLocate_QuotaExhaustedKeepsResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rl", "0")
		w.Header().Set("X-Ttl", "17")
		_, _ = w.Write([]byte(`{"status":"success","country":"Japan","countryCode":"JP","city":"Tokyo"}`))
	})

	info, err := c.Locate(context.Background(), "1.0.16.1")
	var throttled *ThrottledError
	require.ErrorAs(t, err, &throttled)
	assert.Equal(t, 17*time.Second, throttled.Wait)
	assert.Equal(t, "JP", info.CountryCode)
}

func TestLocate_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Locate(context.Background(), "1.1.1.1")
	assert.Error(t, err)
	var throttled *ThrottledError
	assert.False(t, errors.As(err, &throttled))
}

func TestTTLHeaderDefault(t *testing.T) {
	assert.Equal(t, defaultCooldown, ttlHeader(http.Header{}))
	assert.Equal(t, defaultCooldown, ttlHeader(http.Header{"X-Ttl": []string{"abc"}}))
}
