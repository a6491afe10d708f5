package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRouter(t *testing.T) (http.Handler, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(NewTraceMiddleware(
			WithTracerProvider(tp),
			WithPropagator(propagation.TraceContext{}),
			WithUserHeader("X-User-ID"),
		))
		r.Get("/orders/{orderID}/tracking", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		r.Post("/checkout/attempts/{attemptID}/cod", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("pong"))
		})
	})

	return r, rec
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}

	return out
}

func TestSpanNamedAfterRoute(t *testing.T) {
	h, rec := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/o42/tracking", nil)
	req.Header.Set("X-User-ID", "u1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /api/orders/{orderID}/tracking", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())

	a := attrs(span)
	assert.Equal(t, "/api/orders/{orderID}/tracking", a["http.route"].AsString())
	assert.Equal(t, "/api/orders/o42/tracking", a["http.target"].AsString())
	assert.Equal(t, "u1", a["enduser.id"].AsString())
	assert.Equal(t, int64(http.StatusNotFound), a["http.status_code"].AsInt64())
	assert.Equal(t, codes.Unset, span.Status().Code, "4xx is not a server error")
}

func TestServerErrorMarksSpan(t *testing.T) {
	h, rec := newRouter(t)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/checkout/attempts/a1/cod", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /api/checkout/attempts/{attemptID}/cod", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	_, ok := attrs(spans[0])["enduser.id"]
	assert.False(t, ok, "anonymous requests carry no end user")
}

func TestImplicitOKAndParentContext(t *testing.T) {
	h, rec := newRouter(t)

	const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("traceparent", traceparent)
	h.ServeHTTP(httptest.NewRecorder(), req)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, int64(http.StatusOK), attrs(spans[0])["http.status_code"].AsInt64())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
}
