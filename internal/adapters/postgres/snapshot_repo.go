package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/firewatch/internal/core/domain"
)

// SnapshotRepo implements ports.SnapshotRepository with pgx. Each Replace
// runs in one transaction: the table is emptied and refilled with COPY, so
// readers see either the old collection or the new one.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func (r *SnapshotRepo) replace(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy %s: %w", table, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *SnapshotRepo) ReplaceStations(ctx context.Context, stations []domain.Station) error {
	rows := make([][]any, len(stations))
	for i, s := range stations {
		rows[i] = []any{i, s.ID, s.Name, s.Address, s.Location.Lat, s.Location.Lon}
	}
	return r.replace(ctx, "stations", []string{"seq", "id", "name", "address", "lat", "lon"}, rows)
}

func (r *SnapshotRepo) ReplaceShelters(ctx context.Context, shelters []domain.Shelter) error {
	rows := make([][]any, len(shelters))
	for i, s := range shelters {
		rows[i] = []any{i, s.ID, s.Name, s.StreetAddress, s.City, s.State, s.Zip, s.Location.Lat, s.Location.Lon}
	}
	return r.replace(ctx, "shelters",
		[]string{"seq", "id", "name", "street_address", "city", "state", "zip", "lat", "lon"}, rows)
}

func (r *SnapshotRepo) ReplaceHydrants(ctx context.Context, hydrants []domain.Hydrant) error {
	rows := make([][]any, len(hydrants))
	for i, h := range hydrants {
		rows[i] = []any{i, h.ID, h.Location.Lat, h.Location.Lon}
	}
	return r.replace(ctx, "hydrants", []string{"seq", "id", "lat", "lon"}, rows)
}

func (r *SnapshotRepo) ReplaceHazards(ctx context.Context, hazards []domain.Hazard) error {
	rows := make([][]any, len(hazards))
	for i, h := range hazards {
		rows[i] = []any{i, h.ID, h.Location.Lat, h.Location.Lon, h.Intensity, h.Confidence, nullTime(h.DetectedAt)}
	}
	return r.replace(ctx, "hazards",
		[]string{"seq", "id", "lat", "lon", "intensity", "confidence", "detected_at"}, rows)
}

func (r *SnapshotRepo) ReplaceAlerts(ctx context.Context, alerts []domain.WeatherAlert) error {
	rows := make([][]any, len(alerts))
	for i, a := range alerts {
		var geom []byte
		if a.Geometry != nil {
			b, err := json.Marshal(a.Geometry)
			if err != nil {
				return fmt.Errorf("encode alert %s geometry: %w", a.ID, err)
			}
			geom = b
		}
		rows[i] = []any{i, a.ID, a.Event, a.Severity, a.Headline, a.Area, nullTime(a.Sent), nullTime(a.Expires), geom}
	}
	return r.replace(ctx, "weather_alerts",
		[]string{"seq", "id", "event", "severity", "headline", "area", "sent", "expires", "geometry"}, rows)
}

func (r *SnapshotRepo) Stations(ctx context.Context) ([]domain.Station, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name, address, lat, lon FROM stations ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Station
	for rows.Next() {
		var s domain.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Location.Lat, &s.Location.Lon); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SnapshotRepo) Shelters(ctx context.Context) ([]domain.Shelter, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, street_address, city, state, zip, lat, lon
		FROM shelters ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Shelter
	for rows.Next() {
		var s domain.Shelter
		if err := rows.Scan(&s.ID, &s.Name, &s.StreetAddress, &s.City, &s.State, &s.Zip,
			&s.Location.Lat, &s.Location.Lon); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SnapshotRepo) Hydrants(ctx context.Context) ([]domain.Hydrant, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, lat, lon FROM hydrants ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hydrant
	for rows.Next() {
		var h domain.Hydrant
		if err := rows.Scan(&h.ID, &h.Location.Lat, &h.Location.Lon); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *SnapshotRepo) Hazards(ctx context.Context) ([]domain.Hazard, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, lat, lon, intensity, confidence, detected_at
		FROM hazards ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hazard
	for rows.Next() {
		var h domain.Hazard
		var detected *time.Time
		if err := rows.Scan(&h.ID, &h.Location.Lat, &h.Location.Lon, &h.Intensity, &h.Confidence, &detected); err != nil {
			return nil, err
		}
		if detected != nil {
			h.DetectedAt = *detected
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *SnapshotRepo) Alerts(ctx context.Context) ([]domain.WeatherAlert, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, event, severity, headline, area, sent, expires, geometry
		FROM weather_alerts ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WeatherAlert
	for rows.Next() {
		var a domain.WeatherAlert
		var sent, expires *time.Time
		var geom []byte
		if err := rows.Scan(&a.ID, &a.Event, &a.Severity, &a.Headline, &a.Area, &sent, &expires, &geom); err != nil {
			return nil, err
		}
		if sent != nil {
			a.Sent = *sent
		}
		if expires != nil {
			a.Expires = *expires
		}
		if len(geom) > 0 {
			a.Geometry = json.RawMessage(geom)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SnapshotRepo) Meta(ctx context.Context) ([]domain.Snapshot, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT kind, count, dropped, fetched_at FROM snapshot_meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byKind := make(map[domain.EntityKind]domain.Snapshot)
	for rows.Next() {
		var s domain.Snapshot
		var kind string
		if err := rows.Scan(&kind, &s.Count, &s.Dropped, &s.FetchedAt); err != nil {
			return nil, err
		}
		s.Kind = domain.EntityKind(kind)
		byKind[s.Kind] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Snapshot, 0, len(byKind))
	for _, k := range domain.AllKinds {
		if s, ok := byKind[k]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *SnapshotRepo) RecordSnapshot(ctx context.Context, snap domain.Snapshot) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO snapshot_meta (kind, count, dropped, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind) DO UPDATE
		SET count = EXCLUDED.count, dropped = EXCLUDED.dropped, fetched_at = EXCLUDED.fetched_at
	`, string(snap.Kind), snap.Count, snap.Dropped, snap.FetchedAt)
	return err
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
