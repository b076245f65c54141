package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/commerce/backend/internal/infrastructure/auth"
	"github.com/commerce/backend/internal/infrastructure/cache"
	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/commerce/backend/internal/interfaces/http/dto"
	"github.com/commerce/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuthenticator struct {
	claims *auth.Claims
}

func (s stubAuthenticator) Authenticate(context.Context, string) (*auth.Claims, error) {
	if s.claims == nil {
		return nil, auth.ErrInvalidToken
	}
	return s.claims, nil
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestEngine(t *testing.T, mutate func(*EngineConfig)) *gin.Engine {
	t.Helper()
	cfg := EngineConfig{
		HTTP:   config.HTTPConfig{MaxBodySize: 1 << 20},
		Logger: zap.NewNop(),
		Health: handler.NewHealthHandler("test", nil),
		Routes: RoutesConfig{
			Authenticator: stubAuthenticator{claims: &auth.Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "8d7c4a4e-5a4b-4f0e-9d3c-2f1a1b0c9e8d"},
				Permissions:      []string{"orders:read"},
			}},
			Logger: zap.NewNop(),
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewEngine(cfg)
}

func serve(engine *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestEngine_Health(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		engine := newTestEngine(t, nil)
		w := serve(engine, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})

	t.Run("degraded when a dependency is down", func(t *testing.T) {
		engine := newTestEngine(t, func(cfg *EngineConfig) {
			cfg.Health = handler.NewHealthHandler("test", map[string]handler.Pinger{"database": downPinger{}})
		})
		w := serve(engine, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"down"`)
	})
}

func TestEngine_Fallbacks(t *testing.T) {
	engine := newTestEngine(t, nil)

	w := serve(engine, http.MethodGet, "/api/v1/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))

	w = serve(engine, http.MethodDelete, "/api/v1/store/regions", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestEngine_CommonHeaders(t *testing.T) {
	engine := newTestEngine(t, nil)

	w := serve(engine, http.MethodGet, "/health", map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w = serve(engine, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestEngine_AdminAccess(t *testing.T) {
	engine := newTestEngine(t, nil)

	t.Run("missing token", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/api/v1/admin/products", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("permission for another resource", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/api/v1/admin/products", map[string]string{"Authorization": "Bearer token"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
	})

	t.Run("read permission does not allow writes", func(t *testing.T) {
		w := serve(engine, http.MethodPost, "/api/v1/admin/orders/8d7c4a4e-5a4b-4f0e-9d3c-2f1a1b0c9e8d/cancel",
			map[string]string{"Authorization": "Bearer token"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("uploads require auth", func(t *testing.T) {
		w := serve(engine, http.MethodPost, "/api/v1/uploads", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestEngine_RateLimit(t *testing.T) {
	engine := newTestEngine(t, func(cfg *EngineConfig) {
		cfg.HTTP.RateLimitEnabled = true
		cfg.Limiter = cache.NewFixedWindowLimiter(2, time.Hour)
	})

	for i := 0; i < 2; i++ {
		w := serve(engine, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := serve(engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, dto.ErrCodeRateLimited, errorCode(t, w))
}
