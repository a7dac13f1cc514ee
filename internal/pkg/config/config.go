package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ValkeyConfig points at the shared cache. An empty Addr selects the
// in-process cache.
type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// SnapshotConfig selects the snapshot store and the upstream feeds.
type SnapshotConfig struct {
	Store           string        `mapstructure:"store"`
	Scheduler       string        `mapstructure:"scheduler"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	StationsURL     string        `mapstructure:"stations_url"`
	SheltersURL     string        `mapstructure:"shelters_url"`
	OverpassURL     string        `mapstructure:"overpass_url"`
	HydrantsQuery   string        `mapstructure:"hydrants_query"`
	FirmsURL        string        `mapstructure:"firms_url"`
	AlertsURL       string        `mapstructure:"alerts_url"`
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type RoutingConfig struct {
	URL             string        `mapstructure:"url"`
	Key             string        `mapstructure:"key"`
	Profile         string        `mapstructure:"profile"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxAvoidRegions int           `mapstructure:"max_avoid_regions"`
	AvoidRadiusKm   float64       `mapstructure:"avoid_radius_km"`
	AvoidShape      string        `mapstructure:"avoid_shape"`
	CircleSides     int           `mapstructure:"circle_sides"`
	BoxDeltaDeg     float64       `mapstructure:"box_delta_deg"`
	DistanceMetric  string        `mapstructure:"distance_metric"`
}

type GeocoderConfig struct {
	URL             string        `mapstructure:"url"`
	Key             string        `mapstructure:"key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CacheTTLSeconds int           `mapstructure:"cache_ttl_seconds"`
}

// Load reads configuration from .env, an optional config file and
// environment variables, in increasing order of precedence.
func Load(service string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "firewatch")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "firewatch")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "firewatch-refresh")
	v.SetDefault("snapshot.store", "memory")
	v.SetDefault("snapshot.scheduler", "inprocess")
	v.SetDefault("snapshot.refresh_interval", 10*time.Minute)
	v.SetDefault("snapshot.stations_url", "https://data.lacity.org/resource/rnb4-daiw.json")
	v.SetDefault("snapshot.shelters_url", "http://localhost:5001/shelters")
	v.SetDefault("snapshot.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("snapshot.hydrants_query", `[out:json][timeout:60];node["emergency"="fire_hydrant"](33.70,-118.67,34.34,-118.15);out;`)
	v.SetDefault("snapshot.firms_url", "https://firms.modaps.eosdis.nasa.gov/data/active_fire/suomi-npp-viirs-c2/csv/SUOMI_VIIRS_C2_USA_contiguous_and_Hawaii_24h.csv")
	v.SetDefault("snapshot.alerts_url", "https://api.weather.gov/alerts/active?area=CA")
	v.SetDefault("snapshot.user_agent", "firewatch/1.0")
	v.SetDefault("snapshot.timeout", 30*time.Second)
	v.SetDefault("routing.url", "https://graphhopper.com/api/1/route")
	v.SetDefault("routing.key", "")
	v.SetDefault("routing.profile", "car")
	v.SetDefault("routing.timeout", 20*time.Second)
	v.SetDefault("routing.max_avoid_regions", 50)
	v.SetDefault("routing.avoid_radius_km", 5.0)
	v.SetDefault("routing.avoid_shape", "circle")
	v.SetDefault("routing.circle_sides", 36)
	v.SetDefault("routing.box_delta_deg", 0.05)
	v.SetDefault("routing.distance_metric", "planar")
	v.SetDefault("geocoder.url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocoder.key", "")
	v.SetDefault("geocoder.timeout", 10*time.Second)
	v.SetDefault("geocoder.cache_ttl_seconds", 86400)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: FIREWATCH_ROUTING_KEY → routing.key
	v.SetEnvPrefix("FIREWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// LOG_LEVEL is honoured without the prefix.
	_ = v.BindEnv("log.level", "FIREWATCH_LOG_LEVEL", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Snapshot.Store {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("snapshot.store must be memory or postgres, got %q", c.Snapshot.Store))
	}
	switch c.Snapshot.Scheduler {
	case "inprocess":
	case "temporal":
		// The refresher worker and the API share snapshots only through postgres.
		if c.Snapshot.Store != "postgres" {
			errs = append(errs, "snapshot.scheduler temporal requires snapshot.store postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("snapshot.scheduler must be inprocess or temporal, got %q", c.Snapshot.Scheduler))
	}
	if c.Snapshot.RefreshInterval < 0 {
		errs = append(errs, "snapshot.refresh_interval must not be negative")
	}

	if c.Routing.URL == "" {
		errs = append(errs, "routing.url is required")
	}
	if c.Routing.MaxAvoidRegions <= 0 {
		errs = append(errs, fmt.Sprintf("routing.max_avoid_regions must be positive, got %d", c.Routing.MaxAvoidRegions))
	}
	if c.Routing.AvoidRadiusKm <= 0 {
		errs = append(errs, "routing.avoid_radius_km must be positive")
	}
	if c.Routing.AvoidShape != "circle" && c.Routing.AvoidShape != "box" {
		errs = append(errs, fmt.Sprintf("routing.avoid_shape must be circle or box, got %q", c.Routing.AvoidShape))
	}
	if c.Routing.CircleSides < 3 {
		errs = append(errs, fmt.Sprintf("routing.circle_sides must be at least 3, got %d", c.Routing.CircleSides))
	}
	if c.Routing.BoxDeltaDeg <= 0 {
		errs = append(errs, "routing.box_delta_deg must be positive")
	}
	if c.Routing.DistanceMetric != "planar" && c.Routing.DistanceMetric != "haversine" {
		errs = append(errs, fmt.Sprintf("routing.distance_metric must be planar or haversine, got %q", c.Routing.DistanceMetric))
	}
	if c.Geocoder.URL == "" {
		errs = append(errs, "geocoder.url is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
