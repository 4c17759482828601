// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package otpcq connects pcq trace events to zap logging and OpenTelemetry
// metrics and tracing. Each adapter is a [pcq.Tracer]; combine several with
// [pcq.MultiTracer].
package otpcq

import (
	"context"
	"errors"

	"github.com/petenewcomb/pcq-go"
	"go.uber.org/zap"
)

// LogTracer returns a tracer that writes each event to logger as a structured
// line. Produced and consumed items are logged at Debug, a completed run at
// Info, and an aborted run at Error. A nil logger means zap.L().
func LogTracer(logger *zap.Logger) pcq.Tracer {
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.With(zap.String("component", "pcq"))
	return pcq.TracerFunc(func(ctx context.Context, ev pcq.Event) {
		switch ev.Kind {
		case pcq.EventProduced:
			logger.Debug("produced",
				zap.Int("producer", ev.TaskID),
				zap.Stringer("item", ev.Item),
				zap.Time("time", ev.Time))
		case pcq.EventConsumed:
			logger.Debug("consumed",
				zap.Int("consumer", ev.TaskID),
				zap.Stringer("item", ev.Item),
				zap.Uint64("ordinal", ev.Ordinal),
				zap.Duration("latency", ev.Latency),
				zap.Time("time", ev.Time))
		case pcq.EventComplete:
			logger.Info("run complete", summaryFields(ev.Summary)...)
		case pcq.EventAborted:
			fields := append(summaryFields(ev.Summary), zap.Error(ev.Err))
			var ie *pcq.InvariantError
			if errors.As(ev.Err, &ie) {
				fields = append(fields,
					zap.Stringer("role", ie.Role),
					zap.Int("task", ie.TaskID),
					zap.String("invariant", ie.Invariant))
			}
			logger.Error("run aborted", fields...)
		}
	})
}

func summaryFields(s *pcq.Summary) []zap.Field {
	if s == nil {
		return nil
	}
	return []zap.Field{
		zap.Int64("produced", s.Produced),
		zap.Int64("consumed", s.Consumed),
		zap.Int64("pending", s.Pending),
		zap.Int("high_water", s.HighWater),
		zap.Duration("elapsed", s.Elapsed),
	}
}
