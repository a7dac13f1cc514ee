package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/httpclient"
)

type overpassResponse struct {
	Elements []struct {
		Type string   `json:"type"`
		ID   int64    `json:"id"`
		Lat  *float64 `json:"lat"`
		Lon  *float64 `json:"lon"`
	} `json:"elements"`
}

// FetchHydrants runs the hydrant query against the Overpass API. Only node
// elements are hydrants; ways and relations are ignored without counting.
func (s *Sources) FetchHydrants(ctx context.Context) (ports.FetchResult[domain.Hydrant], error) {
	var res ports.FetchResult[domain.Hydrant]

	form := url.Values{"data": {s.cfg.HydrantsQuery}}
	body, err := fetch(ctx, s.overpass, httpclient.Request{
		Method:      "POST",
		URL:         s.cfg.OverpassURL,
		ContentType: "application/x-www-form-urlencoded",
		Body:        []byte(form.Encode()),
	})
	if err != nil {
		return res, err
	}

	var raw overpassResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return res, domain.UpstreamError("overpass", fmt.Errorf("decode elements: %w", err))
	}

	for _, e := range raw.Elements {
		if e.Type != "node" {
			continue
		}
		if e.Lat == nil || e.Lon == nil {
			res.Dropped++
			continue
		}
		loc, ok := point(*e.Lat, *e.Lon)
		if !ok {
			res.Dropped++
			continue
		}
		res.Items = append(res.Items, domain.Hydrant{
			ID:       fmt.Sprintf("node/%d", e.ID),
			Location: loc,
		})
	}
	return res, nil
}
