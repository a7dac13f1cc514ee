package geocoder_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/firewatch/internal/adapters/geocoder"
	"github.com/samirrijal/firewatch/internal/core/domain"
)

func serve(t *testing.T, status int, body string) *geocoder.Google {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("address") == "" {
			t.Errorf("address not sent: %s", r.URL.RawQuery)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return geocoder.NewGoogle(geocoder.Config{URL: srv.URL, Key: "k", Timeout: 2 * time.Second})
}

func TestGeocode_OK(t *testing.T) {
	g := serve(t, http.StatusOK, `{"status":"OK","results":[{"geometry":{"location":{"lat":34.0537,"lng":-118.2428}}}]}`)

	pt, err := g.Geocode(context.Background(), "200 N Spring St, Los Angeles")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pt.Lat != 34.0537 || pt.Lon != -118.2428 {
		t.Errorf("unexpected point %v", pt)
	}
}

func TestGeocode_ZeroResults(t *testing.T) {
	g := serve(t, http.StatusOK, `{"status":"ZERO_RESULTS","results":[]}`)
	_, err := g.Geocode(context.Background(), "asdfghjkl")
	if !errors.Is(err, domain.ErrEmptyResult) {
		t.Fatalf("expected empty result, got %v", err)
	}
}

func TestGeocode_Denied(t *testing.T) {
	g := serve(t, http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`)
	_, err := g.Geocode(context.Background(), "200 N Spring St")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "The provided API key is invalid.") {
		t.Errorf("upstream message lost: %v", err)
	}
}

func TestGeocode_ServerError(t *testing.T) {
	g := serve(t, http.StatusServiceUnavailable, `oops`)
	if _, err := g.Geocode(context.Background(), "200 N Spring St"); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
