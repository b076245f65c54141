package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"COMMERCE_APP_NAME",
	"COMMERCE_APP_ENV",
	"COMMERCE_APP_PORT",
	"COMMERCE_DATABASE_DRIVER",
	"COMMERCE_DATABASE_HOST",
	"COMMERCE_DATABASE_PORT",
	"COMMERCE_DATABASE_PASSWORD",
	"COMMERCE_DATABASE_SSLMODE",
	"COMMERCE_DATABASE_MAX_OPEN_CONNS",
	"COMMERCE_DATABASE_MAX_IDLE_CONNS",
	"COMMERCE_JWT_SECRET",
	"COMMERCE_JWT_REFRESH_SECRET",
	"COMMERCE_SESSION_TTL",
	"COMMERCE_SESSION_SLIDING",
	"COMMERCE_TELEMETRY_METRICS_ENABLED",
	"COMMERCE_SCHEDULER_ENABLED",
	"COMMERCE_STORAGE_DRIVER",
	"COMMERCE_STORAGE_S3_BUCKET",
	"COMMERCE_HTTP_CORS_ALLOW_ORIGINS",
	"COMMERCE_PAYMENT_STRIPE_SECRET_KEY",
	"COMMERCE_PAYMENT_STRIPE_TEST_MODE",
	"COMMERCE_HTTP_RATE_LIMIT_WINDOW",
	"COMMERCE_HTTP_AUTH_RATE_LIMIT_WINDOW",
	"COMMERCE_TELEMETRY_SAMPLING_RATIO",
}

// clearConfigEnv unsets every key for the duration of the test
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearConfigEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "commerce-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "commerce", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiration)
		assert.Equal(t, cfg.JWT.RefreshTokenExpiration, cfg.Session.TTL)
		assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
		assert.Equal(t, "local", cfg.Storage.Driver)
		assert.Equal(t, "*/5 * * * *", cfg.Scheduler.ReservationSchedule)
		assert.Empty(t, cfg.HTTP.CORSAllowOrigins)
		assert.True(t, cfg.Session.Sliding)
		assert.True(t, cfg.Telemetry.MetricsEnabled)
		assert.True(t, cfg.Scheduler.Enabled)
		assert.False(t, cfg.Payment.StripeEnabled())
	})

	t.Run("loads values from environment variables with COMMERCE prefix", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("COMMERCE_APP_NAME", "shop")
		t.Setenv("COMMERCE_APP_PORT", "8081")
		t.Setenv("COMMERCE_DATABASE_DRIVER", "sqlite")
		t.Setenv("COMMERCE_DATABASE_HOST", "db.local")
		t.Setenv("COMMERCE_DATABASE_PORT", "5433")
		t.Setenv("COMMERCE_SESSION_TTL", "48h")
		t.Setenv("COMMERCE_SESSION_SLIDING", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shop", cfg.App.Name)
		assert.Equal(t, "shop", cfg.Telemetry.ServiceName)
		assert.Equal(t, "8081", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "db.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 48*time.Hour, cfg.Session.TTL)
		assert.True(t, cfg.Session.Sliding)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("COMMERCE_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("COMMERCE_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("COMMERCE_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("s3 storage needs a bucket", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("COMMERCE_STORAGE_DRIVER", "s3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.s3_bucket")

		t.Setenv("COMMERCE_STORAGE_S3_BUCKET", "media")
		_, err = Load()
		require.NoError(t, err)
	})

	t.Run("session ttl shorter than access token is rejected", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("COMMERCE_SESSION_TTL", "1m")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session.ttl")
	})

	t.Run("negative rate limit windows are rejected", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("COMMERCE_HTTP_RATE_LIMIT_WINDOW", "-1s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http.rate_limit_window")

		clearConfigEnv(t)
		t.Setenv("COMMERCE_HTTP_AUTH_RATE_LIMIT_WINDOW", "-1m")

		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http.auth_rate_limit_window")
	})

	t.Run("sampling ratio defaults to one and keeps an explicit zero", func(t *testing.T) {
		clearConfigEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)

		t.Setenv("COMMERCE_TELEMETRY_SAMPLING_RATIO", "0")
		cfg, err = Load()
		require.NoError(t, err)
		assert.Equal(t, 0.0, cfg.Telemetry.SamplingRatio)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("COMMERCE_APP_ENV", "production")
		t.Setenv("COMMERCE_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("COMMERCE_JWT_REFRESH_SECRET", "this-is-another-secure-refresh-secret-key")
		t.Setenv("COMMERCE_DATABASE_PASSWORD", "secure-password")
		t.Setenv("COMMERCE_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.IsProduction())
	})

	t.Run("requires long jwt secrets", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("COMMERCE_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")

		setValidProductionBase(t)
		t.Setenv("COMMERCE_JWT_REFRESH_SECRET", "short")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.refresh_secret")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("COMMERCE_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("COMMERCE_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects wildcard CORS origin in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("COMMERCE_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})

	t.Run("rejects stripe test mode in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("COMMERCE_PAYMENT_STRIPE_SECRET_KEY", "sk_live_abc")
		t.Setenv("COMMERCE_PAYMENT_STRIPE_TEST_MODE", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stripe_test_mode")
	})
}

func TestPaymentConfig_StripeEnabled(t *testing.T) {
	assert.False(t, PaymentConfig{}.StripeEnabled())
	assert.True(t, PaymentConfig{StripeSecretKey: "sk_test_abc"}.StripeEnabled())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "/testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
