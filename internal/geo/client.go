// Package geo resolves the country behind a network address via an external
// geolocation HTTP service.
package geo

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"complaintdesk/internal/complaint/models"
	"complaintdesk/internal/platform/config"
)

// maxResponseSize bounds the lookup response body; a country code is tiny.
const maxResponseSize = 64

// Client calls the geolocation service. The upstream contract is
// GET {base}/{address}/country returning a bare 2-character country code.
type Client struct {
	http    *http.Client
	baseURL string
	tracer  trace.Tracer
}

// NewClient builds a geolocation client with the configured connect and read
// timeouts. No retries are layered here; a failure or timeout surfaces as a
// failure of the submission that triggered the lookup.
func NewClient(cfg config.GeolocationConfig) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
	}
	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.ReadTimeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tracer:  otel.Tracer("complaintdesk/geo"),
	}
}

// CountryFromAddr resolves the ISO country code for a network address.
func (c *Client) CountryFromAddr(ctx context.Context, addr string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "geo.CountryFromAddr",
		trace.WithAttributes(attribute.String("geo.addr", addr)),
	)
	defer span.End()

	lookupURL := fmt.Sprintf("%s/%s/country", c.baseURL, url.PathEscape(addr))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return "", fmt.Errorf("build geolocation request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("geolocation lookup: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read geolocation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geolocation lookup: unexpected status %d", resp.StatusCode)
	}

	country := strings.ToUpper(strings.TrimSpace(string(body)))
	if len(country) != models.CountryCodeLength {
		return "", fmt.Errorf("geolocation lookup: malformed country code %q", country)
	}
	span.SetAttributes(attribute.String("geo.country", country))
	return country, nil
}
