package geospatial

import "github.com/samirrijal/firewatch/internal/core/domain"

// Nearest returns the candidate closest to origin under Planar distance.
// Candidates with NaN or infinite coordinates are skipped. On ties the
// first candidate in input order wins. ok is false when nothing qualifies.
func Nearest[T domain.Locatable](origin domain.GeoPoint, candidates []T) (best T, ok bool) {
	return NearestBy(origin, candidates, Planar)
}

// NearestBy is Nearest with an explicit distance function.
func NearestBy[T domain.Locatable](origin domain.GeoPoint, candidates []T, dist DistanceFunc) (best T, ok bool) {
	idx := NearestIndex(origin, candidates, dist)
	if idx < 0 {
		return best, false
	}
	return candidates[idx], true
}

// NearestIndex returns the index of the nearest valid candidate, or -1.
func NearestIndex[T domain.Locatable](origin domain.GeoPoint, candidates []T, dist DistanceFunc) int {
	if !origin.Valid() {
		return -1
	}
	if dist == nil {
		dist = Planar
	}

	bestIdx := -1
	var bestDist float64
	for i, c := range candidates {
		p := c.Position()
		if !p.Valid() {
			continue
		}
		d := dist(origin, p)
		if bestIdx < 0 || d < bestDist {
			bestIdx = i
			bestDist = d
		}
	}
	return bestIdx
}
