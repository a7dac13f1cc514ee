// Package geojson renders domain geometry as GeoJSON using orb.
// Coordinates are emitted in GeoJSON order: [lon, lat].
package geojson

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/firewatch/internal/core/domain"
)

// Point converts a GeoPoint to an orb point.
func Point(p domain.GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FromPoint converts an orb point back to a GeoPoint.
func FromPoint(p orb.Point) domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
}

// Ring converts a closed GeoPoint ring to an orb ring.
func Ring(ring []domain.GeoPoint) orb.Ring {
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		out[i] = Point(p)
	}
	return out
}

// AvoidRegions renders each region as a polygon feature whose id is the
// region id, so the routing custom model can refer to it as "in_<id>".
func AvoidRegions(regions []domain.AvoidRegion) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		f := geojson.NewFeature(orb.Polygon{Ring(r.Ring)})
		f.ID = r.ID
		f.Properties = geojson.Properties{"hazard_id": r.HazardID}
		fc.Append(f)
	}
	return fc
}

// Hazards renders hazards as point features carrying their intensity.
func Hazards(hazards []domain.Hazard) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, h := range hazards {
		if !h.Location.Valid() {
			continue
		}
		f := geojson.NewFeature(Point(h.Location))
		f.ID = h.ID
		f.Properties = geojson.Properties{
			"intensity":  h.Intensity,
			"confidence": h.Confidence,
		}
		if !h.DetectedAt.IsZero() {
			f.Properties["detected_at"] = h.DetectedAt
		}
		fc.Append(f)
	}
	return fc
}

// Shelters renders shelters as point features.
func Shelters(shelters []domain.Shelter) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range shelters {
		if !s.Location.Valid() {
			continue
		}
		f := geojson.NewFeature(Point(s.Location))
		f.ID = s.ID
		f.Properties = geojson.Properties{
			"name":    s.Name,
			"address": s.StreetAddress,
			"city":    s.City,
		}
		fc.Append(f)
	}
	return fc
}

// Route renders a route path as a LineString feature.
func Route(route domain.RouteResult) *geojson.Feature {
	ls := make(orb.LineString, len(route.Path))
	for i, p := range route.Path {
		ls[i] = Point(p)
	}
	f := geojson.NewFeature(ls)
	if route.DistanceMeters != nil {
		f.Properties["distance_m"] = *route.DistanceMeters
	}
	return f
}

// DecodePath reads a GeoJSON geometry and returns its vertices as GeoPoints.
// LineString and MultiPoint are accepted.
func DecodePath(data []byte) ([]domain.GeoPoint, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}

	var pts []orb.Point
	switch c := g.Coordinates.(type) {
	case orb.LineString:
		pts = c
	case orb.MultiPoint:
		pts = c
	default:
		return nil, fmt.Errorf("unsupported geometry type %s", g.Type)
	}

	out := make([]domain.GeoPoint, len(pts))
	for i, p := range pts {
		out[i] = FromPoint(p)
	}
	return out, nil
}
