package fingerprint

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultManufURL is the Wireshark manufacturer database.
const DefaultManufURL = "https://www.wireshark.org/download/automated/data/manuf"

// RefreshInterval is the age after which the registry is downloaded again.
const RefreshInterval = 7 * 24 * time.Hour

// ParseManuf reads the tab separated Wireshark format:
// prefix, short name, optional long name. Only 24-bit prefixes are kept.
func ParseManuf(r io.Reader, now time.Time) ([]OUIEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var entries []OUIEntry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}

		raw := parts[0]
		if i := strings.Index(raw, "/"); i >= 0 {
			if raw[i+1:] != "24" {
				continue
			}
			raw = raw[:i]
		}
		prefix := normalizePrefix(raw)
		if prefix == "" {
			continue
		}

		short := strings.TrimSpace(parts[1])
		long := short
		if len(parts) >= 3 {
			if l := strings.TrimSpace(parts[2]); l != "" {
				long = l
			}
		}
		if short == "" {
			continue
		}
		entries = append(entries, OUIEntry{Prefix: prefix, Vendor: long, VendorShort: short, LastUpdated: now})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyManuf
	}
	return entries, nil
}

// ManufSource downloads the manuf file.
type ManufSource struct {
	URL    string
	Client *http.Client
}

// NewManufSource uses DefaultManufURL when url is empty.
func NewManufSource(url string) *ManufSource {
	if url == "" {
		url = DefaultManufURL
	}
	return &ManufSource{
		URL: url,
		Client: &http.Client{
			Timeout:   2 * time.Minute,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Fetch downloads and parses the file.
func (s *ManufSource) Fetch(ctx context.Context) ([]OUIEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download manuf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download manuf: HTTP status %d", resp.StatusCode)
	}
	return ParseManuf(resp.Body, time.Now())
}

// Refresh downloads the registry and replaces the database contents.
func Refresh(ctx context.Context, db *OUIDatabase, src *ManufSource) (int, error) {
	entries, err := src.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if err := db.ReplaceAll(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
