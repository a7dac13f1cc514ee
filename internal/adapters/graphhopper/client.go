package graphhopper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/paulmach/orb/geojson"

	fwgeojson "github.com/samirrijal/firewatch/internal/adapters/geojson"
	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/httpclient"
	"github.com/samirrijal/firewatch/internal/pkg/telemetry"
)

const service = "graphhopper"

// ErrNoKey is returned when no API key is configured.
var ErrNoKey = errors.New("graphhopper: api key not configured")

// Config configures the routing client.
type Config struct {
	URL     string
	Key     string
	Profile string
	Timeout time.Duration
}

// Client implements ports.Router and ports.RouteForwarder against the
// GraphHopper routing API. The key is added to the query string here and
// never leaves the server.
type Client struct {
	http    *httpclient.Client
	url     string
	key     string
	profile string
}

// New creates a new Client.
func New(cfg Config) *Client {
	profile := cfg.Profile
	if profile == "" {
		profile = "car"
	}
	return &Client{
		http:    httpclient.New(service, cfg.Timeout, "firewatch/1.0"),
		url:     cfg.URL,
		key:     cfg.Key,
		profile: profile,
	}
}

type priorityRule struct {
	If         string `json:"if"`
	MultiplyBy string `json:"multiply_by"`
}

type customModel struct {
	Priority []priorityRule             `json:"priority"`
	Areas    *geojson.FeatureCollection `json:"areas"`
}

type routeRequest struct {
	Points        [][2]float64 `json:"points"`
	Profile       string       `json:"profile"`
	PointsEncoded bool         `json:"points_encoded"`
	CHDisable     bool         `json:"ch.disable"`
	CustomModel   *customModel `json:"custom_model,omitempty"`
}

type routeResponse struct {
	Message string      `json:"message"`
	Paths   []routePath `json:"paths"`
}

type routePath struct {
	Points   json.RawMessage `json:"points"`
	Distance *float64        `json:"distance"`
}

// BuildRequestBody renders the provider request for req. Each avoid region
// becomes an area whose priority is multiplied by zero; with no regions the
// custom model is omitted.
func (c *Client) BuildRequestBody(req ports.RouteRequest) ([]byte, error) {
	body := routeRequest{
		Points: [][2]float64{
			{req.Origin.Lon, req.Origin.Lat},
			{req.Destination.Lon, req.Destination.Lat},
		},
		Profile:       c.profile,
		PointsEncoded: false,
		// Custom models need the flexible mode.
		CHDisable: true,
	}
	if len(req.AvoidRegions) > 0 {
		model := &customModel{Areas: fwgeojson.AvoidRegions(req.AvoidRegions)}
		for _, r := range req.AvoidRegions {
			model.Priority = append(model.Priority, priorityRule{If: "in_" + r.ID, MultiplyBy: "0"})
		}
		body.CustomModel = model
	}
	return json.Marshal(body)
}

// Route asks the provider for a path from origin to destination.
func (c *Client) Route(ctx context.Context, req ports.RouteRequest) (*domain.RouteResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRouteRequest)
	defer span.End()

	body, err := c.BuildRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("encode route request: %w", err)
	}

	status, respBody, err := c.Forward(ctx, body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if status < 200 || status >= 300 {
		msg := upstreamMessage(respBody)
		slog.ErrorContext(ctx, "routing request failed", "status", status, "message", msg)
		return nil, domain.UpstreamError(service, fmt.Errorf("status %d: %s", status, msg))
	}

	return ParseRouteResponse(respBody)
}

// Forward posts an opaque request body to the provider with the key
// attached and returns the raw reply.
func (c *Client) Forward(ctx context.Context, body []byte) (int, []byte, error) {
	if c.key == "" {
		return 0, nil, ErrNoKey
	}
	target, err := c.endpoint()
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:      "POST",
		URL:         target,
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		slog.ErrorContext(ctx, "routing provider unreachable", "error", err)
		return 0, nil, err
	}
	return resp.Status, resp.Body, nil
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("parse routing url: %w", err)
	}
	q := u.Query()
	q.Set("key", c.key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseRouteResponse reads the first path of a provider reply. Points may be
// a bare [[lon,lat],...] array or a GeoJSON LineString.
func ParseRouteResponse(data []byte) (*domain.RouteResult, error) {
	var resp routeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, domain.UpstreamError(service, fmt.Errorf("decode response: %w", err))
	}
	if len(resp.Paths) == 0 {
		return nil, domain.EmptyResultError("no route found")
	}

	path, err := decodePoints(resp.Paths[0].Points)
	if err != nil {
		return nil, domain.UpstreamError(service, err)
	}
	return &domain.RouteResult{Path: path, DistanceMeters: resp.Paths[0].Distance}, nil
}

func decodePoints(raw json.RawMessage) ([]domain.GeoPoint, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '{' {
		return fwgeojson.DecodePath(raw)
	}

	var coords [][]float64
	if err := json.Unmarshal(raw, &coords); err != nil {
		return nil, fmt.Errorf("decode points: %w", err)
	}
	out := make([]domain.GeoPoint, 0, len(coords))
	for i, c := range coords {
		if len(c) < 2 {
			return nil, fmt.Errorf("point %d has %d coordinates", i, len(c))
		}
		out = append(out, domain.GeoPoint{Lat: c[1], Lon: c[0]})
	}
	return out, nil
}

func upstreamMessage(body []byte) string {
	var resp routeResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		return resp.Message
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return string(body)
}
