package middleware

import (
	"strings"

	"campusrent/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware opens a server span per request, named after the matched route
// so /rentals/7/approve and /rentals/8/approve share one span name.
// Once the handler has run, the acting user, how they were identified and the
// rental being touched are attached to the span.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		carrier := propagation.HeaderCarrier(c.GetReqHeaders())
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("net.peer.ip", c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		if rid, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		c.SetUserContext(ctx)

		err := c.Next()

		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		status := c.Response().StatusCode()
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		span.SetAttributes(actorAttributes(c)...)
		if strings.HasPrefix(route, "/rentals/:id") {
			span.SetAttributes(attribute.String("campusrent.rental_id", c.Params("id")))
		}

		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= fiber.StatusInternalServerError:
			span.SetStatus(codes.Error, "server error")
		}
		return err
	}
}

// actorAttributes describes who made the request. Bearer callers leave their claims in
// locals; a user id without claims came from the legacy query parameter.
func actorAttributes(c *fiber.Ctx) []attribute.KeyValue {
	uid, ok := c.Locals("userID").(uint)
	if !ok || uid == 0 {
		return []attribute.KeyValue{attribute.String("campusrent.identity_source", "anonymous")}
	}
	source := "query"
	if c.Locals("claims") != nil {
		source = "bearer"
	}
	return []attribute.KeyValue{
		attribute.Int64("campusrent.actor_id", int64(uid)),
		attribute.String("campusrent.identity_source", source),
	}
}
