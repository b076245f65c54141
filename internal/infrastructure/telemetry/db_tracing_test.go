package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openTracedDB(t *testing.T, plugin *DBTracingPlugin) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Use(plugin))
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	rec := withRecorder(t)
	db := openTracedDB(t, NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop()))

	require.NoError(t, db.Create(&tracedRow{Name: "a"}).Error)
	assert.Empty(t, rec.Ended())
}

func TestDBTracingPlugin_RecordsSpans(t *testing.T) {
	rec := withRecorder(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"
	db := openTracedDB(t, NewDBTracingPlugin(cfg, zap.NewNop()))

	ctx, parent := otel.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	parent.End()

	var found bool
	for _, s := range rec.Ended() {
		for _, kv := range s.Attributes() {
			if kv.Key == attribute.Key("db.sql.table") && kv.Value.AsString() == "traced_rows" {
				found = true
			}
		}
	}
	assert.True(t, found, "statement span carries table attribute")
}

func TestDBTracingPlugin_SlowQuery(t *testing.T) {
	withRecorder(t)
	core, logs := observer.New(zap.WarnLevel)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.SlowQueryThresh = time.Nanosecond
	db := openTracedDB(t, NewDBTracingPlugin(cfg, zap.New(core)))

	ctx, parent := otel.Tracer("test").Start(context.Background(), "parent")
	defer parent.End()
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "slow"}).Error)

	assert.GreaterOrEqual(t, logs.FilterMessage("slow query").Len(), 1)
}
