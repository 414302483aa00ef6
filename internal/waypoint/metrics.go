package waypoint

import (
	"context"
	"fmt"

	"github.com/routecue/waypointd/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/routecue/waypointd/internal/waypoint"

type metrics struct {
	announcements metric.Int64Counter
	rebuilds      metric.Int64Counter
	passes        metric.Int64Counter
}

// newMetrics uses the global OTel meter (no-op if not configured).
func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)
	var (
		out metrics
		err error
	)

	out.announcements, err = m.Int64Counter(
		"waypoint.announcements",
		metric.WithDescription("Points or alarm types forwarded to the announcement sink"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating announcements counter: %w", err)
	}

	out.rebuilds, err = m.Int64Counter(
		"waypoint.rebuilds",
		metric.WithDescription("Category lists rebuilt"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rebuilds counter: %w", err)
	}

	out.passes, err = m.Int64Counter(
		"waypoint.passes",
		metric.WithDescription("Evaluation passes run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating passes counter: %w", err)
	}

	return &out, nil
}

func (m *metrics) announced(ctx context.Context, c core.Category, stage core.Stage, n int) {
	m.announcements.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("category", c.String()),
		attribute.String("stage", string(stage)),
	))
}

func (m *metrics) rebuilt(ctx context.Context, c core.Category) {
	m.rebuilds.Add(ctx, 1, metric.WithAttributes(attribute.String("category", c.String())))
}
