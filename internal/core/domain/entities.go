package domain

import (
	"slices"
	"time"
)

// EntityKind names one of the wholesale-refreshed snapshot collections.
type EntityKind string

const (
	KindStations EntityKind = "stations"
	KindShelters EntityKind = "shelters"
	KindHydrants EntityKind = "hydrants"
	KindHazards  EntityKind = "hazards"
	KindAlerts   EntityKind = "alerts"
)

// AllKinds lists every snapshot kind in refresh order.
var AllKinds = []EntityKind{KindStations, KindShelters, KindHydrants, KindHazards, KindAlerts}

// ParseKinds validates snapshot kind names.
func ParseKinds(names []string) ([]EntityKind, error) {
	kinds := make([]EntityKind, 0, len(names))
	for _, name := range names {
		kind := EntityKind(name)
		if !slices.Contains(AllKinds, kind) {
			return nil, InputError("unknown snapshot kind %q", name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// Station is a fire station.
type Station struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address,omitempty"`
	Location GeoPoint `json:"location"`
}

func (s Station) Position() GeoPoint { return s.Location }

// Shelter is an emergency shelter (Red Cross scrape).
type Shelter struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	StreetAddress string   `json:"street_address,omitempty"`
	City          string   `json:"city,omitempty"`
	State         string   `json:"state,omitempty"`
	Zip           string   `json:"zip,omitempty"`
	Location      GeoPoint `json:"location"`
}

func (s Shelter) Position() GeoPoint { return s.Location }

// Hydrant is a fire hydrant node.
type Hydrant struct {
	ID       string   `json:"id"`
	Location GeoPoint `json:"location"`
}

func (h Hydrant) Position() GeoPoint { return h.Location }

// Hazard is an active fire detection. Intensity is the satellite brightness.
type Hazard struct {
	ID         string    `json:"id"`
	Location   GeoPoint  `json:"location"`
	Intensity  float64   `json:"intensity"`
	Confidence string    `json:"confidence,omitempty"`
	DetectedAt time.Time `json:"detected_at,omitempty"`
}

func (h Hazard) Position() GeoPoint { return h.Location }

// WeatherAlert is an active weather warning for the covered area.
type WeatherAlert struct {
	ID       string    `json:"id"`
	Event    string    `json:"event"`
	Severity string    `json:"severity"`
	Headline string    `json:"headline,omitempty"`
	Area     string    `json:"area"`
	Sent     time.Time `json:"sent"`
	Expires  time.Time `json:"expires"`
	Geometry any       `json:"geometry,omitempty"`
}

// Snapshot is one full replacement of an entity collection.
type Snapshot struct {
	Kind      EntityKind `json:"kind"`
	Count     int        `json:"count"`
	Dropped   int        `json:"dropped"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// AvoidShape selects the ring geometry generated around a hazard.
type AvoidShape string

const (
	ShapeCircle AvoidShape = "circle"
	ShapeBox    AvoidShape = "box"
)

// AvoidRegion is a closed ring (first == last) around one hazard.
type AvoidRegion struct {
	ID       string     `json:"id"`
	HazardID string     `json:"hazard_id"`
	Ring     []GeoPoint `json:"ring"`
}

// RouteResult is a path returned by the routing provider.
type RouteResult struct {
	Path           []GeoPoint `json:"path"`
	DistanceMeters *float64   `json:"distance_meters"`
}

// RoutePlan is the full outcome of one planRoute call.
type RoutePlan struct {
	ID           string        `json:"id"`
	Address      string        `json:"address"`
	Origin       GeoPoint      `json:"origin"`
	Shelter      Shelter       `json:"shelter"`
	AvoidRegions []AvoidRegion `json:"avoid_regions"`
	Route        RouteResult   `json:"route"`
	PlannedAt    time.Time     `json:"planned_at"`
}

// Assignment pairs one station with one hazard.
type Assignment struct {
	Station Station `json:"station"`
	Hazard  Hazard  `json:"hazard"`
	Score   float64 `json:"score"`
}

// DeploymentRun is one truck-deployment simulation result.
type DeploymentRun struct {
	ID                string       `json:"id"`
	Assignments       []Assignment `json:"assignments"`
	ActiveHazards     int          `json:"active_hazards"`
	AssignedHazards   int          `json:"assigned_hazards"`
	UnassignedHazards int          `json:"unassigned_hazards"`
	IdleStations      int          `json:"idle_stations"`
	GeneratedAt       time.Time    `json:"generated_at"`
}
