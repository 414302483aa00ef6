package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/routecue/waypointd/internal/dispatcher"

// instruments are the dispatcher metrics. They come from the global meter
// provider and stay no-ops until one is installed.
type instruments struct {
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	failed    metric.Int64Counter
	latency   metric.Float64Histogram
}

// newInstruments creates the instruments. depths is polled for the queue
// size gauge.
func newInstruments(depths func() map[string]int) (*instruments, error) {
	m := otel.Meter(instrumentationName)
	ins := &instruments{}

	var err error
	ins.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Commands waiting in each buffered queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			for cmd, n := range depths() {
				o.ObserveInt64(ins.queueSize, int64(n), commandAttr(cmd))
			}
			return nil
		},
		ins.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	ins.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Buffered commands handled by their worker"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	ins.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Commands rejected because their queue was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	ins.failed, err = m.Int64Counter(
		"dispatcher.events.failed",
		metric.WithDescription("Commands whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	ins.latency, err = m.Float64Histogram(
		"dispatcher.handler.duration",
		metric.WithDescription("Time spent in command handlers"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating latency histogram: %w", err)
	}

	return ins, nil
}

func commandAttr(command string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("command", command))
}
