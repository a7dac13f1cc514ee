package geospatial

import (
	"fmt"
	"math"
	"sort"

	"github.com/samirrijal/firewatch/internal/core/domain"
)

const (
	DefaultMaxAvoidRegions = 50
	DefaultCircleSides     = 36
	DefaultBoxDeltaDeg     = 0.05
	DefaultAvoidRadiusKm   = 5.0
)

// AvoidOptions controls avoid-region generation.
//
// MaxCount caps the number of regions so the routing request stays below the
// provider's payload limit (it answers 413 beyond that).
type AvoidOptions struct {
	MaxCount    int
	RadiusKm    float64
	Shape       domain.AvoidShape
	Sides       int
	BoxDeltaDeg float64
}

func (o AvoidOptions) withDefaults() AvoidOptions {
	if o.MaxCount <= 0 {
		o.MaxCount = DefaultMaxAvoidRegions
	}
	if o.RadiusKm <= 0 {
		o.RadiusKm = DefaultAvoidRadiusKm
	}
	if o.Shape == "" {
		o.Shape = domain.ShapeCircle
	}
	if o.Sides < 3 {
		o.Sides = DefaultCircleSides
	}
	if o.BoxDeltaDeg <= 0 {
		o.BoxDeltaDeg = DefaultBoxDeltaDeg
	}
	return o
}

// BuildAvoidRegions turns the most intense hazards into closed rings.
// Hazards are ordered by intensity (descending, stable) and truncated to
// MaxCount before any geometry is generated. The input slice is not modified.
func BuildAvoidRegions(hazards []domain.Hazard, opts AvoidOptions) ([]domain.AvoidRegion, error) {
	opts = opts.withDefaults()
	if opts.Shape != domain.ShapeCircle && opts.Shape != domain.ShapeBox {
		return nil, domain.InputError("unknown avoid shape %q", opts.Shape)
	}

	ranked := make([]domain.Hazard, 0, len(hazards))
	for _, h := range hazards {
		if h.Location.Valid() && !math.IsNaN(h.Intensity) {
			ranked = append(ranked, h)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Intensity > ranked[j].Intensity
	})
	if len(ranked) > opts.MaxCount {
		ranked = ranked[:opts.MaxCount]
	}

	regions := make([]domain.AvoidRegion, 0, len(ranked))
	for i, h := range ranked {
		var ring []domain.GeoPoint
		if opts.Shape == domain.ShapeBox {
			ring = BoxRing(h.Location, opts.BoxDeltaDeg)
		} else {
			ring = CircleRing(h.Location, opts.RadiusKm, opts.Sides)
		}
		regions = append(regions, domain.AvoidRegion{
			ID:       fmt.Sprintf("fire%d", i),
			HazardID: h.ID,
			Ring:     ring,
		})
	}
	return regions, nil
}

// CircleRing approximates a circle of radiusKm with a closed regular polygon.
func CircleRing(center domain.GeoPoint, radiusKm float64, sides int) []domain.GeoPoint {
	r := radiusKm / KmPerDegree
	ring := make([]domain.GeoPoint, 0, sides+1)
	for i := 0; i < sides; i++ {
		theta := 2 * math.Pi * float64(i) / float64(sides)
		ring = append(ring, domain.GeoPoint{
			Lat: center.Lat + r*math.Sin(theta),
			Lon: center.Lon + r*math.Cos(theta),
		})
	}
	return append(ring, ring[0])
}

// BoxRing returns the closed axis-aligned box center±delta, counter-clockwise.
func BoxRing(center domain.GeoPoint, delta float64) []domain.GeoPoint {
	sw := domain.GeoPoint{Lat: center.Lat - delta, Lon: center.Lon - delta}
	return []domain.GeoPoint{
		sw,
		{Lat: center.Lat - delta, Lon: center.Lon + delta},
		{Lat: center.Lat + delta, Lon: center.Lon + delta},
		{Lat: center.Lat + delta, Lon: center.Lon - delta},
		sw,
	}
}
