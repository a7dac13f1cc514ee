package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every embedded migration in file-name order. Migrations
// are written to be idempotent, so reruns are safe.
func Migrate(ctx context.Context, db *DB) error {
	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := migrationFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := db.Pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		slog.InfoContext(ctx, "migration applied", "file", f)
	}
	return nil
}

var snapshotTables = []string{"stations", "shelters", "hydrants", "hazards", "weather_alerts", "snapshot_meta"}

// Drop removes every snapshot table. The next Migrate recreates them empty.
func Drop(ctx context.Context, db *DB) error {
	for _, t := range snapshotTables {
		if _, err := db.Pool.Exec(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
		slog.InfoContext(ctx, "table dropped", "table", t)
	}
	return nil
}
