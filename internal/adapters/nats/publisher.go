package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/firewatch/internal/core/domain"
)

// Subjects carried by the FIREWATCH_EVENTS stream.
const (
	StreamName = "FIREWATCH_EVENTS"

	SubjectAll            = "firewatch.>"
	SubjectSnapshotPrefix = "firewatch.snapshot.refreshed."
	SubjectSnapshotAll    = "firewatch.snapshot.refreshed.>"
	SubjectRoutePlanned   = "firewatch.route.planned"
	SubjectDeploymentDone = "firewatch.deployment.completed"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist; try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishSnapshotRefreshed(ctx context.Context, snap domain.Snapshot) error {
	return p.publish(ctx, SubjectSnapshotPrefix+string(snap.Kind), snap)
}

func (p *Publisher) PublishRoutePlanned(ctx context.Context, plan *domain.RoutePlan) error {
	return p.publish(ctx, SubjectRoutePlanned, plan)
}

func (p *Publisher) PublishDeployment(ctx context.Context, run *domain.DeploymentRun) error {
	return p.publish(ctx, SubjectDeploymentDone, run)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("firewatch"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
