package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject returns the NATS subject an event type is published on.
func Subject(prefix string, t EventType) string {
	return fmt.Sprintf("%s.events.%s", prefix, t)
}

// WildcardSubject matches every event under prefix.
func WildcardSubject(prefix string) string {
	return fmt.Sprintf("%s.events.>", prefix)
}

// Publisher publishes events as JSON to NATS.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

// NewPublisher creates a publisher on an established connection.
func NewPublisher(nc *nats.Conn, prefix string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{nc: nc, prefix: prefix, logger: logger.Named("nats")}
}

// Publish sends e and reports failures to the caller.
func (p *Publisher) Publish(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.nc.Publish(Subject(p.prefix, e.Type), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Notify implements Notifier; a failed publish is logged.
func (p *Publisher) Notify(_ context.Context, e Event) {
	if err := p.Publish(e); err != nil {
		p.logger.Warn("event dropped", zap.String("type", string(e.Type)), zap.Error(err))
	}
}
