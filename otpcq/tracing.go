// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otpcq

import (
	"context"

	"github.com/petenewcomb/pcq-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanTracer returns a tracer that turns events into spans on tracer. Each
// consumed item becomes a "pcq.item" span covering the item's life from
// creation to the end of its processing, and each finished run becomes a
// "pcq.run" span. Spans are parented on the span found in the event's context,
// if any. A nil tracer means the global tracer provider's "otpcq" tracer.
func SpanTracer(tracer trace.Tracer) pcq.Tracer {
	if tracer == nil {
		tracer = otel.Tracer("otpcq")
	}
	return pcq.TracerFunc(func(ctx context.Context, ev pcq.Event) {
		switch ev.Kind {
		case pcq.EventConsumed:
			_, span := tracer.Start(ctx, "pcq.item",
				trace.WithTimestamp(ev.Time.Add(-ev.Latency)),
				trace.WithAttributes(
					attribute.String("pcq.item", ev.Item.String()),
					attribute.Int("pcq.producer", ev.Item.ProducerID),
					attribute.Int("pcq.sequence", ev.Item.Sequence),
					attribute.Int("pcq.consumer", ev.TaskID),
					attribute.Int64("pcq.ordinal", int64(ev.Ordinal)),
				))
			span.End(trace.WithTimestamp(ev.Time))

		case pcq.EventComplete, pcq.EventAborted:
			start := ev.Time
			var attrs []attribute.KeyValue
			if s := ev.Summary; s != nil {
				start = ev.Time.Add(-s.Elapsed)
				attrs = append(attrs,
					attribute.Int64("pcq.produced", s.Produced),
					attribute.Int64("pcq.consumed", s.Consumed),
					attribute.Int64("pcq.pending", s.Pending),
					attribute.Int("pcq.high_water", s.HighWater),
				)
			}
			_, span := tracer.Start(ctx, "pcq.run",
				trace.WithTimestamp(start),
				trace.WithAttributes(attrs...))
			if ev.Kind == pcq.EventAborted {
				if ev.Err != nil {
					span.RecordError(ev.Err)
					span.SetStatus(codes.Error, ev.Err.Error())
				} else {
					span.SetStatus(codes.Error, "aborted")
				}
			}
			span.End(trace.WithTimestamp(ev.Time))
		}
	})
}
