package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/pkg/httpclient"
)

const service = "geocoder"

// Config configures the geocoding client.
type Config struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// Google implements ports.Geocoder with the Google Geocoding JSON API.
type Google struct {
	http *httpclient.Client
	url  string
	key  string
}

// NewGoogle creates a new Google geocoder.
func NewGoogle(cfg Config) *Google {
	return &Google{
		http: httpclient.New(service, cfg.Timeout, "firewatch/1.0"),
		url:  cfg.URL,
		key:  cfg.Key,
	}
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode returns the first result for address. An address with no match
// is an empty result; a rejected or failed call is an upstream error.
func (g *Google) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	u, err := url.Parse(g.url)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("parse geocoder url: %w", err)
	}
	q := u.Query()
	q.Set("address", address)
	if g.key != "" {
		q.Set("key", g.key)
	}
	u.RawQuery = q.Encode()

	resp, err := g.http.Do(ctx, httpclient.Request{URL: u.String()})
	if err != nil {
		return domain.GeoPoint{}, err
	}
	if !resp.OK() {
		slog.ErrorContext(ctx, "geocoder request failed", "status", resp.Status)
		return domain.GeoPoint{}, domain.UpstreamError(service, fmt.Errorf("status %d", resp.Status))
	}

	var body geocodeResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return domain.GeoPoint{}, domain.UpstreamError(service, fmt.Errorf("decode response: %w", err))
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domain.GeoPoint{}, domain.EmptyResultError("no geocoding match for %q", address)
	default:
		msg := body.Status
		if body.ErrorMessage != "" {
			msg += ": " + body.ErrorMessage
		}
		slog.ErrorContext(ctx, "geocoder rejected request", "status", body.Status, "message", body.ErrorMessage)
		return domain.GeoPoint{}, domain.UpstreamError(service, errors.New(msg))
	}
	if len(body.Results) == 0 {
		return domain.GeoPoint{}, domain.EmptyResultError("no geocoding match for %q", address)
	}

	loc := body.Results[0].Geometry.Location
	return domain.GeoPoint{Lat: loc.Lat, Lon: loc.Lng}, nil
}
