package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "catalog.products", cfg.RabbitMQExchange)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.True(t, cfg.Catalog.WipeOnEmptyImages)
	assert.True(t, cfg.Catalog.WipeOnEmptyStock)
	assert.False(t, cfg.Catalog.AllowPurge)
	assert.Equal(t, 10, cfg.Catalog.PageLimit)
}

func TestLoadFrom_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_DSN", "file::memory:")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("CATALOG_WIPE_EMPTY_IMAGES", "false")
	t.Setenv("CATALOG_ALLOW_PURGE", "true")
	t.Setenv("CATALOG_PAGE_LIMIT", "25")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "file::memory:", cfg.DatabaseDSN)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.False(t, cfg.Catalog.WipeOnEmptyImages)
	assert.True(t, cfg.Catalog.WipeOnEmptyStock)
	assert.True(t, cfg.Catalog.AllowPurge)
	assert.Equal(t, 25, cfg.Catalog.PageLimit)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DATABASE_DRIVER", "mysql"},
		{"zero page limit", "CATALOG_PAGE_LIMIT", "0"},
		{"negative ttl", "JWT_TTL", "-1h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.val)
			_, err := LoadFrom(viper.New())
			assert.Error(t, err)
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
