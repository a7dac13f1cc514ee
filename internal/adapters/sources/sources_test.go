package sources_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/firewatch/internal/adapters/sources"
	"github.com/samirrijal/firewatch/internal/core/domain"
)

func newSources(t *testing.T, handler http.HandlerFunc) *sources.Sources {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return sources.New(sources.Config{
		StationsURL:   srv.URL + "/stations",
		SheltersURL:   srv.URL + "/shelters",
		OverpassURL:   srv.URL + "/overpass",
		HydrantsQuery: `[out:json];node["emergency"="fire_hydrant"];out;`,
		FirmsURL:      srv.URL + "/firms",
		AlertsURL:     srv.URL + "/alerts",
		UserAgent:     "firewatch-test",
		Timeout:       2 * time.Second,
	})
}

func TestFetchStations(t *testing.T) {
	s := newSources(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"shp_addr":"Fire Station 4","address":"450 E Temple St","the_geom":{"type":"Point","coordinates":[-118.2383,34.0505]}},
			{"shp_addr":"No Geometry"},
			{"shp_addr":"Bad","the_geom":{"type":"Point","coordinates":[-218.0,34.0]}}
		]`)
	})

	res, err := s.FetchStations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 || res.Dropped != 2 {
		t.Fatalf("expected 1 item and 2 dropped, got %d/%d", len(res.Items), res.Dropped)
	}
	st := res.Items[0]
	if st.Name != "Fire Station 4" || st.Location.Lat != 34.0505 || st.Location.Lon != -118.2383 {
		t.Errorf("unexpected station %+v", st)
	}
}

func TestFetchShelters(t *testing.T) {
	s := newSources(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"name":"Pasadena Civic","streetAddress":"300 E Green St","city":"Pasadena","state":"CA","zip":"91101","latitude":34.1442,"longitude":-118.1443},
			{"name":"String Coords","latitude":"34.05","longitude":"-118.25"},
			{"name":"Missing","latitude":null,"longitude":null},
			{"name":"Garbage","latitude":"N/A","longitude":"N/A"}
		]`)
	})

	res, err := s.FetchShelters(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 2 || res.Dropped != 2 {
		t.Fatalf("expected 2 items and 2 dropped, got %d/%d", len(res.Items), res.Dropped)
	}
	if res.Items[0].City != "Pasadena" || res.Items[1].Location.Lat != 34.05 {
		t.Errorf("unexpected shelters %+v", res.Items)
	}
}

func TestFetchHydrants(t *testing.T) {
	s := newSources(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		if !strings.Contains(form.Get("data"), "fire_hydrant") {
			t.Errorf("query not sent as form field data: %s", body)
		}
		_, _ = io.WriteString(w, `{"elements":[
			{"type":"node","id":1,"lat":34.1,"lon":-118.3},
			{"type":"way","id":2},
			{"type":"node","id":3}
		]}`)
	})

	res, err := s.FetchHydrants(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "node/1" || res.Dropped != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestParseFIRMS_VIIRS(t *testing.T) {
	csv := "latitude,longitude,bright_ti4,scan,track,acq_date,acq_time,satellite,confidence\n" +
		"34.07,-118.54,367.2,0.39,0.36,2025-01-08,930,N,h\n" +
		"not,a,row,,,,,,\n" +
		"95.0,-118.0,300,0,0,2025-01-08,1000,N,n\n"

	res, err := sources.ParseFIRMS(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 || res.Dropped != 2 {
		t.Fatalf("expected 1 item and 2 dropped, got %d/%d", len(res.Items), res.Dropped)
	}
	h := res.Items[0]
	if h.Intensity != 367.2 || h.Confidence != "h" {
		t.Errorf("unexpected hazard %+v", h)
	}
	want := time.Date(2025, 1, 8, 9, 30, 0, 0, time.UTC)
	if !h.DetectedAt.Equal(want) {
		t.Errorf("expected %s, got %s", want, h.DetectedAt)
	}
}

func TestParseFIRMS_MODISBrightness(t *testing.T) {
	csv := "latitude,longitude,brightness,acq_date,acq_time,confidence\n34.0,-118.0,320.5,2025-01-08,0112,80\n"
	res, err := sources.ParseFIRMS(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Intensity != 320.5 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestParseFIRMS_DropsNonFiniteBrightness(t *testing.T) {
	csv := "latitude,longitude,bright_ti4,acq_date,acq_time,confidence\n" +
		"40.0,-120.0,NaN,2025-01-08,0930,h\n" +
		"34.1,-118.1,Inf,2025-01-08,0930,h\n" +
		"34.2,-118.2,-Inf,2025-01-08,0930,h\n" +
		"34.06,-118.25,500,2025-01-08,0930,h\n"

	res, err := sources.ParseFIRMS(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 || res.Dropped != 3 {
		t.Fatalf("expected 1 item and 3 dropped, got %d/%d", len(res.Items), res.Dropped)
	}
	if res.Items[0].Intensity != 500 {
		t.Errorf("unexpected hazard %+v", res.Items[0])
	}
	if _, err := json.Marshal(res.Items); err != nil {
		t.Errorf("hazards must encode: %v", err)
	}
}

func TestParseFIRMS_MissingColumn(t *testing.T) {
	if _, err := sources.ParseFIRMS(strings.NewReader("lat,lon\n1,2\n")); err == nil {
		t.Error("expected error for missing columns")
	}
}

func TestFetchAlerts_KeepsFireWeather(t *testing.T) {
	s := newSources(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "firewatch-test" {
			t.Errorf("user agent not sent")
		}
		_, _ = io.WriteString(w, `{"type":"FeatureCollection","features":[
			{"id":"a1","geometry":null,"properties":{"id":"urn:1","event":"Red Flag Warning","severity":"Severe","areaDesc":"Los Angeles County","sent":"2025-01-07T04:00:00-08:00","expires":"2025-01-07T20:00:00-08:00"}},
			{"id":"a2","geometry":{"type":"Polygon","coordinates":[]},"properties":{"id":"urn:2","event":"Wind Advisory","severity":"Moderate","areaDesc":"Ventura","sent":"2025-01-07T04:00:00-08:00","expires":"2025-01-07T20:00:00-08:00"}}
		]}`)
	})

	res, err := s.FetchAlerts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "urn:1" || res.Items[0].Geometry != nil {
		t.Errorf("unexpected alerts %+v", res.Items)
	}
}

func TestFetch_UpstreamStatus(t *testing.T) {
	s := newSources(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if _, err := s.FetchStations(context.Background()); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestIsFireWeather(t *testing.T) {
	for event, want := range map[string]bool{
		"Red Flag Warning":    true,
		"Fire Weather Watch":  true,
		"Extreme Fire Danger": true,
		"Flood Watch":         false,
	} {
		if got := sources.IsFireWeather(event); got != want {
			t.Errorf("IsFireWeather(%q) = %v", event, got)
		}
	}
}
