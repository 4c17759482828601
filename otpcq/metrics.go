// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otpcq

import (
	"context"
	"errors"

	"github.com/petenewcomb/pcq-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsTracer returns a tracer that records pcq.items.produced and
// pcq.items.consumed counters, a pcq.item.latency histogram in seconds, and
// pcq.runs counted by outcome. A nil meter means the global meter provider's
// "otpcq" meter.
func MetricsTracer(meter metric.Meter) (pcq.Tracer, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter("otpcq")
	}
	produced, err1 := meter.Int64Counter("pcq.items.produced",
		metric.WithDescription("Items enqueued by producers"))
	consumed, err2 := meter.Int64Counter("pcq.items.consumed",
		metric.WithDescription("Items processed by consumers"))
	latency, err3 := meter.Float64Histogram("pcq.item.latency",
		metric.WithDescription("Time from item creation to end of processing"),
		metric.WithUnit("s"))
	runs, err4 := meter.Int64Counter("pcq.runs",
		metric.WithDescription("Finished runs by outcome"))
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return nil, err
	}

	return pcq.TracerFunc(func(ctx context.Context, ev pcq.Event) {
		switch ev.Kind {
		case pcq.EventProduced:
			produced.Add(ctx, 1, metric.WithAttributes(attribute.Int("pcq.producer", ev.TaskID)))
		case pcq.EventConsumed:
			attrs := metric.WithAttributes(attribute.Int("pcq.consumer", ev.TaskID))
			consumed.Add(ctx, 1, attrs)
			latency.Record(ctx, ev.Latency.Seconds(), attrs)
		case pcq.EventComplete, pcq.EventAborted:
			runs.Add(ctx, 1, metric.WithAttributes(attribute.String("pcq.outcome", ev.Kind.String())))
		}
	}), nil
}
