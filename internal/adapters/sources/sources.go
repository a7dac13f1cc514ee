// Package sources pulls the full entity collections from their public
// upstream feeds. Records whose coordinates cannot be parsed or fall
// outside the valid range are dropped and counted here, so nothing past
// this package ever sees an invalid location.
package sources

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/pkg/httpclient"
)

// Config lists the upstream feeds.
type Config struct {
	StationsURL   string
	SheltersURL   string
	OverpassURL   string
	HydrantsQuery string
	FirmsURL      string
	AlertsURL     string
	UserAgent     string
	Timeout       time.Duration
}

// Sources implements ports.EntitySources.
type Sources struct {
	cfg      Config
	stations *httpclient.Client
	shelters *httpclient.Client
	overpass *httpclient.Client
	firms    *httpclient.Client
	nws      *httpclient.Client
}

// New creates Sources with one upstream client per feed.
func New(cfg Config) *Sources {
	return &Sources{
		cfg:      cfg,
		stations: httpclient.New("lacity", cfg.Timeout, cfg.UserAgent),
		shelters: httpclient.New("shelters", cfg.Timeout, cfg.UserAgent),
		overpass: httpclient.New("overpass", cfg.Timeout, cfg.UserAgent),
		firms:    httpclient.New("firms", cfg.Timeout, cfg.UserAgent),
		nws:      httpclient.New("nws", cfg.Timeout, cfg.UserAgent),
	}
}

// fetch performs req and returns the body of a 2xx reply.
func fetch(ctx context.Context, c *httpclient.Client, req httpclient.Request) ([]byte, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		slog.ErrorContext(ctx, "source request failed", "service", c.Service(), "status", resp.Status)
		return nil, domain.UpstreamError(c.Service(), fmt.Errorf("status %d", resp.Status))
	}
	return resp.Body, nil
}

// point validates a raw coordinate pair at the ingestion boundary.
func point(lat, lon float64) (domain.GeoPoint, bool) {
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	return p, p.InRange()
}
