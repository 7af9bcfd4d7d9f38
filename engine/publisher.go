package engine

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/metric"
)

// Publisher receives every completed cycle report.
type Publisher interface {
	Publish(ctx context.Context, report *CycleReport) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, report *CycleReport) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, report *CycleReport) error {
	return f(ctx, report)
}

// Conn is the subset of a NATS connection the publisher needs. Both
// *nats.Conn and *natsclient.Client satisfy it.
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes a JSON Summary of each cycle to "<subject>.<cycle>".
type NATSPublisher struct {
	conn    Conn
	subject string
	metrics *metric.Metrics
}

// NewNATSPublisher creates a publisher on the given subject prefix. metrics may
// be nil.
func NewNATSPublisher(conn Conn, subject string, metrics *metric.Metrics) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject, metrics: metrics}
}

// Subject returns the subject a cycle is published on.
func (p *NATSPublisher) Subject(cycle uint64) string {
	return fmt.Sprintf("%s.%d", p.subject, cycle)
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(_ context.Context, report *CycleReport) error {
	data, err := json.Marshal(report.Summary())
	if err != nil {
		p.metrics.RecordPublishError()
		return errors.WrapInvalid(err, "NATSPublisher", "Publish", "marshal summary")
	}

	if err := p.conn.Publish(p.Subject(report.Cycle), data); err != nil {
		p.metrics.RecordPublishError()
		return errors.WrapTransient(err, "NATSPublisher", "Publish", "publish summary")
	}
	p.metrics.RecordStatusPublished(p.subject)
	return nil
}

// LogPublisher writes a one-line summary of every cycle to a logger.
type LogPublisher struct {
	Logger *slog.Logger
}

// Publish implements Publisher.
func (p LogPublisher) Publish(_ context.Context, report *CycleReport) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("cycle complete",
		"cycle", report.Cycle,
		"executed", report.Executed(),
		"errors", len(report.Errors()),
		"warnings", len(report.Warnings()),
		"duration", report.Duration)
	return nil
}

// Publishers fans a report out to several publishers. Every publisher is
// called; failures are joined.
func Publishers(pubs ...Publisher) Publisher {
	return PublisherFunc(func(ctx context.Context, report *CycleReport) error {
		var errs []error
		for _, p := range pubs {
			if err := p.Publish(ctx, report); err != nil {
				errs = append(errs, err)
			}
		}
		return stderrors.Join(errs...)
	})
}
