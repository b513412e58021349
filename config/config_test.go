package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("CATALOG_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Admin.Password)
	assert.Equal(t, 12*time.Hour, cfg.Admin.SessionTTL)
	assert.Equal(t, []string{"admin_session", "admin-token", "adminToken"}, cfg.Admin.CookieNames)
	assert.Equal(t, 500, cfg.Admin.BulkLimit)
	assert.Equal(t, 200, cfg.Report.OrderWindow)
	assert.Equal(t, 50, cfg.Search.CandidateLimit)
	assert.Equal(t, 8, cfg.Search.MaxSuggestions)
	assert.Equal(t, 5*time.Second, cfg.Server.StoreTimeout)
	assert.Equal(t, CatalogBackendPostgres, cfg.Catalog.Backend)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("ADMIN_COOKIE_NAMES", " sid , other ")
	t.Setenv("REPORT_ORDER_WINDOW", "50")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("CATALOG_BACKEND", "Mongo")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Admin.Password)
	assert.Equal(t, []string{"sid", "other"}, cfg.Admin.CookieNames)
	assert.Equal(t, 50, cfg.Report.OrderWindow)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.StoreTimeout)
	assert.Equal(t, CatalogBackendMongo, cfg.Catalog.Backend)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadRejectsUnknownCatalogBackend(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", "cassandra")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseHelpersFallBack(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 7, parseInt("seven", 7))
	assert.Empty(t, parseSlice(""))
	assert.Empty(t, parseSlice(" , "))
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "orders", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=orders sslmode=disable", c.DSN())
}
