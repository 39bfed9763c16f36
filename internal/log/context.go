package log

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type requestId struct{}

func RequestIDFromContext(c context.Context) string {
	requestID, ok := c.Value(requestId{}).(string)
	if !ok {
		return ""
	}
	return requestID
}

func AttachRequestIDToContext(c context.Context, h string) context.Context {
	return context.WithValue(c, requestId{}, h)
}

// AttachTraceIdFromContext copies the request id and the active span ids of the
// event context into every log line written with zerolog.Event.Ctx.
func AttachTraceIdFromContext() zerolog.HookFunc {
	return func(e *zerolog.Event, level zerolog.Level, message string) {
		c := e.GetCtx()
		if c == nil {
			return
		}

		if reqId := RequestIDFromContext(c); reqId != "" {
			e.Str(KeyRequestID, reqId)
		}
		spanCtx := trace.SpanContextFromContext(c)
		if spanCtx.IsValid() {
			e.Str(KeyTraceID, spanCtx.TraceID().String()).
				Str(KeySpanID, spanCtx.SpanID().String())
		}
	}
}
