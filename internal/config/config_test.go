package config

import (
	"testing"
	"time"

	"catalog-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEFAULT_PAGE_SIZE", "")
	t.Setenv("SUPPORTED_LANGUAGES", "")
	t.Setenv("FACETS_CACHE_TTL", "")

	cfg := Load()
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, []string{"ru", "en", "kz"}, cfg.SupportedLanguages)
	assert.Equal(t, 15*time.Minute, cfg.FacetsCacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.ETLSyncInterval)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CORS_ORIGINS", "https://shop.example.com, https://admin.example.com,")
	t.Setenv("ETL_SYNC_INTERVAL", "5m")
	t.Setenv("BASKET_SERVICE_TIMEOUT", "not-a-duration")
	t.Setenv("DB_PORT", "6543")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Minute, cfg.ETLSyncInterval)
	assert.Equal(t, 10*time.Second, cfg.BasketServiceTimeout)
	assert.Equal(t, 6543, cfg.DBPort)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable("stocks"))
	assert.True(t, db.Migrator().HasTable("discount_categories"))
}
