package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(previous)
	})
	return sr
}

func newTracedRouter() *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Tracing(TracingConfig{ServiceName: "test", Enabled: true}), SpanErrorMarker())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	return router
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing(t *testing.T) {
	t.Run("tags the span with the request ID", func(t *testing.T) {
		sr := setupTestTracer(t)
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set(RequestIDHeader, "trace-req")
		newTracedRouter().ServeHTTP(httptest.NewRecorder(), req)

		spans := sr.Ended()
		require.Len(t, spans, 1)
		value, ok := spanAttr(spans[0], "request_id")
		require.True(t, ok)
		assert.Equal(t, "trace-req", value.AsString())
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("marks error responses", func(t *testing.T) {
		sr := setupTestTracer(t)
		newTracedRouter().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		assert.Equal(t, "Not Found", spans[0].Status().Description)
	})

	t.Run("disabled tracing passes through", func(t *testing.T) {
		sr := setupTestTracer(t)
		router := gin.New()
		router.Use(Tracing(TracingConfig{Enabled: false}))
		router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, sr.Ended())
	})
}
