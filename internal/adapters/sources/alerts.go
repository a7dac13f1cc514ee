package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/httpclient"
)

type nwsCollection struct {
	Features []struct {
		ID         string          `json:"id"`
		Geometry   json.RawMessage `json:"geometry"`
		Properties struct {
			ID       string    `json:"id"`
			Event    string    `json:"event"`
			Severity string    `json:"severity"`
			Headline string    `json:"headline"`
			AreaDesc string    `json:"areaDesc"`
			Sent     time.Time `json:"sent"`
			Expires  time.Time `json:"expires"`
		} `json:"properties"`
	} `json:"features"`
}

// IsFireWeather reports whether an NWS event name concerns fire weather.
func IsFireWeather(event string) bool {
	e := strings.ToLower(event)
	return strings.Contains(e, "fire") || strings.Contains(e, "red flag")
}

// FetchAlerts reads active NWS alerts and keeps the fire-weather ones.
// Alerts without geometry are kept; the area description still applies.
func (s *Sources) FetchAlerts(ctx context.Context) (ports.FetchResult[domain.WeatherAlert], error) {
	var res ports.FetchResult[domain.WeatherAlert]

	body, err := fetch(ctx, s.nws, httpclient.Request{
		URL:    s.cfg.AlertsURL,
		Header: map[string]string{"Accept": "application/geo+json"},
	})
	if err != nil {
		return res, err
	}

	var raw nwsCollection
	if err := json.Unmarshal(body, &raw); err != nil {
		return res, domain.UpstreamError("nws", fmt.Errorf("decode alerts: %w", err))
	}

	for _, f := range raw.Features {
		p := f.Properties
		if !IsFireWeather(p.Event) {
			continue
		}
		id := p.ID
		if id == "" {
			id = f.ID
		}
		alert := domain.WeatherAlert{
			ID:       id,
			Event:    p.Event,
			Severity: p.Severity,
			Headline: p.Headline,
			Area:     p.AreaDesc,
			Sent:     p.Sent,
			Expires:  p.Expires,
		}
		if g := f.Geometry; len(g) > 0 && string(g) != "null" {
			alert.Geometry = g
		}
		res.Items = append(res.Items, alert)
	}
	return res, nil
}
