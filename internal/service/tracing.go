package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/iliyamo/charter-booking/internal/service"

// tracer returns the service tracer from the global provider.  Without an
// exporter configured it is a no-op.
func tracer() trace.Tracer { return otel.Tracer(tracerName) }

// endSpan records err on the span before ending it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
