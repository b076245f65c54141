package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/commerce/backend/internal/infrastructure/notification"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Count int64 `json:"count"`
	} `json:"meta"`
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv("COMMERCE_DATABASE_DRIVER", "sqlite")
	t.Setenv("COMMERCE_DATABASE_SQLITE_PATH", filepath.Join(t.TempDir(), "commerce.db"))
	t.Setenv("COMMERCE_STORAGE_DRIVER", "local")
	t.Setenv("COMMERCE_STORAGE_LOCAL_DIR", t.TempDir())
	t.Setenv("COMMERCE_JWT_SECRET", "test-secret-that-is-long-enough-for-hs256")
	t.Setenv("COMMERCE_REDIS_ENABLED", "false")
	t.Setenv("COMMERCE_SCHEDULER_ENABLED", "false")
	t.Setenv("COMMERCE_HTTP_RATE_LIMIT_ENABLED", "false")
	t.Setenv("COMMERCE_HTTP_AUTH_RATE_LIMIT_ENABLED", "false")
	t.Setenv("COMMERCE_TELEMETRY_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	app, err := New(context.Background(), cfg, zap.NewNop(),
		WithSyncEvents(),
		WithMailSender(&notification.MemorySender{}),
	)
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, app.Shutdown(context.Background()))
	})
	return app
}

func do(t *testing.T, app *App, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	app.Engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestApp_Health(t *testing.T) {
	app := newTestApp(t)

	w, _ := do(t, app, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "database")
}

func TestApp_Metrics(t *testing.T) {
	app := newTestApp(t)
	require.NotNil(t, app.Metrics)

	do(t, app, http.MethodGet, "/api/v1/store/regions", nil, "")
	w, _ := do(t, app, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "commerce_http_requests_total")
}

func TestApp_UnknownRoute(t *testing.T) {
	app := newTestApp(t)

	w, env := do(t, app, http.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ERR_NOT_FOUND", env.Error.Code)
}

func TestApp_AdminRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	w, env := do(t, app, http.MethodGet, "/api/v1/admin/products", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)

	w, _ = do(t, app, http.MethodGet, "/api/v1/admin/products", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApp_StartCreatesStore(t *testing.T) {
	app := newTestApp(t)

	st, err := app.Services.Store.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, app.Config.App.Name, st.Name)
	assert.NotNil(t, st.DefaultSalesChannelID)
}

func TestApp_AdminLogin(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	_, err := Seed(ctx, app, SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "supersecret"})
	require.NoError(t, err)

	w, env := do(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	require.NotEmpty(t, tokens.AccessToken)

	w, env = do(t, app, http.MethodGet, "/api/v1/admin/currencies", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, len(seedCurrencies), env.Meta.Count)

	w, _ = do(t, app, http.MethodPost, "/api/v1/auth/logout", nil, tokens.AccessToken)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(t, app, http.MethodGet, "/api/v1/admin/currencies", nil, tokens.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApp_StorefrontCart(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	_, err := Seed(ctx, app, SeedOptions{Demo: true})
	require.NoError(t, err)

	w, env := do(t, app, http.MethodGet, "/api/v1/store/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var products []struct {
		ID       string `json:"id"`
		Handle   string `json:"handle"`
		Variants []struct {
			ID  string `json:"id"`
			SKU string `json:"sku"`
		} `json:"variants"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &products))
	require.Len(t, products, len(seedProducts))

	var variantID string
	for _, p := range products {
		if p.Handle == "classic-t-shirt" {
			require.NotEmpty(t, p.Variants)
			variantID = p.Variants[0].ID
		}
	}
	require.NotEmpty(t, variantID)

	w, env = do(t, app, http.MethodPost, "/api/v1/store/carts", map[string]any{
		"email": "jane@example.com",
		"items": []map[string]any{{"variant_id": variantID, "quantity": 2}},
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cart struct {
		ID           string `json:"id"`
		CurrencyCode string `json:"currency_code"`
		Items        []struct {
			Quantity int `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Equal(t, "usd", cart.CurrencyCode)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	w, env = do(t, app, http.MethodGet, "/api/v1/store/carts/"+cart.ID+"/shipping-options", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var options []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &options))
	assert.Len(t, options, 2)

	w, _ = do(t, app, http.MethodPost, "/api/v1/store/carts", map[string]any{
		"items": []map[string]any{{"variant_id": variantID, "quantity": 1000}},
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func adminToken(t *testing.T, app *App) string {
	t.Helper()
	_, err := Seed(context.Background(), app, SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "supersecret"})
	require.NoError(t, err)

	w, env := do(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	return tokens.AccessToken
}

func TestApp_ProductImport(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t, app)

	upload := func(query string) (*httptest.ResponseRecorder, envelope) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("file", "products.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte("product_handle,product_title,product_status,option_1_name,option_1_value,variant_title,variant_sku,price_usd\n" +
			"mug,Mug,published,Color,White,White,MUG-W,12\n" +
			"mug,,,Color,Black,Black,MUG-B,12\n"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products/import"+query, &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		app.Engine.ServeHTTP(w, req)
		var env envelope
		_ = json.Unmarshal(w.Body.Bytes(), &env)
		return w, env
	}

	var result struct {
		ProductsCreated int `json:"products_created"`
		VariantsCreated int `json:"variants_created"`
		ErrorCount      int `json:"error_count"`
	}

	w, env := upload("?dry_run=true")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Zero(t, result.ProductsCreated)
	assert.Zero(t, result.ErrorCount)

	w, env = upload("")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.ProductsCreated)
	assert.Equal(t, 2, result.VariantsCreated)

	w, env = do(t, app, http.MethodGet, "/api/v1/admin/products", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 1, env.Meta.Count)

	w, env = upload("")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Zero(t, result.ProductsCreated)
	assert.Equal(t, 1, result.ErrorCount)
}
