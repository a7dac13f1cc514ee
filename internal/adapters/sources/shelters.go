package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/httpclient"
)

// coord accepts a JSON number, a numeric string or null.
type coord struct {
	value float64
	set   bool
}

func (c *coord) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unparseable coordinates are dropped by the caller, not fatal.
		return nil
	}
	c.value, c.set = v, true
	return nil
}

type scrapedShelter struct {
	Name          string `json:"name"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	Latitude      coord  `json:"latitude"`
	Longitude     coord  `json:"longitude"`
}

// FetchShelters reads the shelter list published by the scrape service.
func (s *Sources) FetchShelters(ctx context.Context) (ports.FetchResult[domain.Shelter], error) {
	var res ports.FetchResult[domain.Shelter]

	body, err := fetch(ctx, s.shelters, httpclient.Request{URL: s.cfg.SheltersURL})
	if err != nil {
		return res, err
	}

	var raw []scrapedShelter
	if err := json.Unmarshal(body, &raw); err != nil {
		return res, domain.UpstreamError("shelters", fmt.Errorf("decode shelters: %w", err))
	}

	for i, r := range raw {
		if !r.Latitude.set || !r.Longitude.set {
			res.Dropped++
			continue
		}
		loc, ok := point(r.Latitude.value, r.Longitude.value)
		if !ok {
			res.Dropped++
			continue
		}
		res.Items = append(res.Items, domain.Shelter{
			ID:            fmt.Sprintf("shelter-%d", i),
			Name:          r.Name,
			StreetAddress: r.StreetAddress,
			City:          r.City,
			State:         r.State,
			Zip:           r.Zip,
			Location:      loc,
		})
	}
	return res, nil
}
