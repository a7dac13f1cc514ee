package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both coordinates are finite numbers.
// Range checks belong to the ingestion boundary.
func (p GeoPoint) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		!math.IsInf(p.Lat, 0) && !math.IsInf(p.Lon, 0)
}

// InRange reports whether the point lies within [-90,90] x [-180,180].
func (p GeoPoint) InRange() bool {
	return p.Valid() && p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Locatable is anything that sits at a single geographic point.
type Locatable interface {
	Position() GeoPoint
}

// Position implements Locatable.
func (p GeoPoint) Position() GeoPoint { return p }
