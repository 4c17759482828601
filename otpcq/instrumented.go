// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otpcq

import (
	"github.com/petenewcomb/pcq-go"
	"go.uber.org/zap"
)

// InstrumentedTracer combines logging, metrics, and tracing into a single
// tracer, using the global meter and tracer providers.
func InstrumentedTracer(logger *zap.Logger) (pcq.Tracer, error) {
	mt, err := MetricsTracer(nil)
	if err != nil {
		return nil, err
	}
	return pcq.MultiTracer(LogTracer(logger), mt, SpanTracer(nil)), nil
}
