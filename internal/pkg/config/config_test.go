package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/firewatch/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("firewatch-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Routing.MaxAvoidRegions != 50 {
		t.Errorf("expected max_avoid_regions 50, got %d", cfg.Routing.MaxAvoidRegions)
	}
	if cfg.Routing.AvoidShape != "circle" || cfg.Routing.CircleSides != 36 {
		t.Errorf("unexpected avoid defaults: %+v", cfg.Routing)
	}
	if cfg.Snapshot.Store != "memory" {
		t.Errorf("expected memory store, got %s", cfg.Snapshot.Store)
	}
	if cfg.Telemetry.ServiceName != "firewatch-test" {
		t.Errorf("expected service name default, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FIREWATCH_ROUTING_MAX_AVOID_REGIONS", "10")
	t.Setenv("FIREWATCH_SNAPSHOT_REFRESH_INTERVAL", "90s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load("firewatch-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Routing.MaxAvoidRegions != 10 {
		t.Errorf("expected 10, got %d", cfg.Routing.MaxAvoidRegions)
	}
	if cfg.Snapshot.RefreshInterval != 90*time.Second {
		t.Errorf("expected 90s, got %s", cfg.Snapshot.RefreshInterval)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug, got %s", cfg.Log.Level)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Setenv("FIREWATCH_ROUTING_AVOID_SHAPE", "hexagon")
	t.Setenv("FIREWATCH_SNAPSHOT_STORE", "mongo")

	_, err := config.Load("firewatch-test")
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"routing.avoid_shape", "snapshot.store"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %s", msg, want)
		}
	}
}

func TestValidate_TemporalNeedsPostgres(t *testing.T) {
	t.Setenv("FIREWATCH_SNAPSHOT_SCHEDULER", "temporal")

	_, err := config.Load("firewatch-test")
	if err == nil || !strings.Contains(err.Error(), "requires snapshot.store postgres") {
		t.Fatalf("expected scheduler/store error, got %v", err)
	}

	t.Setenv("FIREWATCH_SNAPSHOT_STORE", "postgres")
	cfg, err := config.Load("firewatch-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Snapshot.Scheduler != "temporal" {
		t.Errorf("expected temporal scheduler, got %s", cfg.Snapshot.Scheduler)
	}
}
