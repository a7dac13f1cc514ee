package http

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/core/usecases"
)

// ReadinessCheck is one dependency probed by /v1/ready. Optional checks are
// reported but never fail readiness.
type ReadinessCheck struct {
	Name     string
	Check    func(ctx context.Context) error
	Required bool
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Entities    *usecases.EntityService
	Planner     *usecases.RoutePlanner
	Deployments *usecases.DeploymentService
	Snapshots   *usecases.SnapshotService
	Forwarder   ports.RouteForwarder
	Cache       ports.CacheService
	NATS        *nats.Conn
	Checks      []ReadinessCheck
	Version     string
}
