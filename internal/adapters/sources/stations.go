package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/httpclient"
)

type laStation struct {
	ShpAddr string `json:"shp_addr"`
	Address string `json:"address"`
	TheGeom *struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"the_geom"`
}

// FetchStations reads the LA City fire station dataset.
func (s *Sources) FetchStations(ctx context.Context) (ports.FetchResult[domain.Station], error) {
	var res ports.FetchResult[domain.Station]

	body, err := fetch(ctx, s.stations, httpclient.Request{URL: s.cfg.StationsURL})
	if err != nil {
		return res, err
	}

	var raw []laStation
	if err := json.Unmarshal(body, &raw); err != nil {
		return res, domain.UpstreamError("lacity", fmt.Errorf("decode stations: %w", err))
	}

	for i, r := range raw {
		if r.TheGeom == nil || len(r.TheGeom.Coordinates) < 2 {
			res.Dropped++
			continue
		}
		loc, ok := point(r.TheGeom.Coordinates[1], r.TheGeom.Coordinates[0])
		if !ok {
			res.Dropped++
			continue
		}
		res.Items = append(res.Items, domain.Station{
			ID:       fmt.Sprintf("station-%d", i),
			Name:     r.ShpAddr,
			Address:  r.Address,
			Location: loc,
		})
	}
	return res, nil
}
