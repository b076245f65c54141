package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/commerce/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(t.Context())
	})
	return recorder
}

func attrValue(attrs []attribute.KeyValue, key string) string {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestTracing_SpanAttributes(t *testing.T) {
	recorder := setupSpanRecorder(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{ServiceName: "commerce-test", Enabled: true, SkipPaths: []string{"/health"}}))
	router.Use(SpanAttributes())
	router.Use(func(c *gin.Context) {
		c.Set(logger.RequestIDKey, "req-1")
		c.Set(JWTUserIDKey, "user-1")
		c.Next()
	})
	router.GET("/orders/:id", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/42", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /orders/:id", span.Name())
	assert.Equal(t, "req-1", attrValue(span.Attributes(), "request_id"))
	assert.Equal(t, "user-1", attrValue(span.Attributes(), "user_id"))
	assert.Equal(t, codes.Error, span.Status().Code)
}

func TestTracing_Disabled(t *testing.T) {
	recorder := setupSpanRecorder(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, recorder.Ended())
}
