// Package geoip looks up the location of public addresses through the
// ip-api.com JSON endpoint.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultEndpoint is the lookup URL; %s is replaced with the address.
const DefaultEndpoint = "http://ip-api.com/json/%s?fields=status,country,countryCode,region,regionName,city,lat,lon,isp,org"

const defaultCooldown = 60 * time.Second

// ThrottledError reports that the provider asked us to stop for a while.
type ThrottledError struct {
	Wait time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("geoip provider throttled, retry in %s", e.Wait)
}

// RetryAfter implements the resolver throttling contract.
func (e *ThrottledError) RetryAfter() time.Duration {
	return e.Wait
}

type apiResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
}

// Client queries the provider.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a client with a 5 second timeout and traced transport.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Locate implements ports.GeoLocator. A "fail" status is an empty result,
// not an error. When the provider signals that the quota is spent the
// returned error is a *ThrottledError, possibly alongside a valid result.
func (c *Client) Locate(ctx context.Context, ip string) (domain.GeoInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(c.endpoint, ip), nil)
	if err != nil {
		return domain.GeoInfo{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.GeoInfo{}, fmt.Errorf("geoip request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.GeoInfo{}, &ThrottledError{Wait: ttlHeader(resp.Header)}
	}
	if resp.StatusCode != http.StatusOK {
		return domain.GeoInfo{}, fmt.Errorf("geoip: unexpected status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.GeoInfo{}, fmt.Errorf("geoip decode: %w", err)
	}

	var info domain.GeoInfo
	if body.Status == "success" {
		info = domain.GeoInfo{
			Country:     body.Country,
			CountryCode: body.CountryCode,
			Region:      body.Region,
			RegionName:  body.RegionName,
			City:        body.City,
			Lat:         body.Lat,
			Lon:         body.Lon,
			ISP:         body.ISP,
			Org:         body.Org,
		}
	}

	if strings.TrimSpace(resp.Header.Get("X-Rl")) == "0" {
		return info, &ThrottledError{Wait: ttlHeader(resp.Header)}
	}
	return info, nil
}

func ttlHeader(h http.Header) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(h.Get("X-Ttl"))); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultCooldown
}
