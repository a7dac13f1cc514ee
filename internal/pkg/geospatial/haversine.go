package geospatial

import (
	"math"

	"github.com/samirrijal/firewatch/internal/core/domain"
)

const (
	earthRadiusKm = 6371.0

	// KmPerDegree is the flat-earth conversion used for avoid-region rings.
	// It is applied to both axes, without longitude compression.
	KmPerDegree = 111.0
)

// DistanceFunc measures the distance between two points in its own unit.
type DistanceFunc func(a, b domain.GeoPoint) float64

// Planar is the Euclidean distance over raw lat/lon degrees. It ignores
// earth curvature and is the default metric for nearest-entity search.
func Planar(a, b domain.GeoPoint) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// HaversineMeters is Haversine adapted to DistanceFunc.
func HaversineMeters(a, b domain.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Metric resolves a configured metric name ("planar" or "haversine").
// Unknown names fall back to Planar.
func Metric(name string) DistanceFunc {
	if name == "haversine" {
		return HaversineMeters
	}
	return Planar
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
