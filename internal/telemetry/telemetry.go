// Package telemetry sets up the process-wide OpenTelemetry state.
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// InstallPropagator makes W3C trace context plus baggage the global
// propagator, which otelhttp and the NATS transport read and write.
// Without it the otel default is a no-op and no headers are carried.
func InstallPropagator() propagation.TextMapPropagator {
	p := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	otel.SetTextMapPropagator(p)
	return p
}
