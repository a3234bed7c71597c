package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8085, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "https://html.duckduckgo.com/html/", config.Search.Endpoint)
	assert.Equal(t, 3, config.Jobs.Workers)
	assert.Equal(t, 30*time.Minute, config.Jobs.StaleJobTimeout)
	assert.Equal(t, 7*24*time.Hour, config.Cache.DNSTTL)
	assert.Equal(t, 24*time.Hour, config.Cache.SearchTTL)
	assert.True(t, config.Scheduler.Enabled)
	assert.Equal(t, "0 3 * * *", config.Scheduler.CacheSweepSchedule)
	assert.Equal(t, "30 3 * * *", config.Scheduler.BadgerGCSchedule)
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invenio.toml")
	content := `
environment = "production"

[server]
port = 9090

[jobs]
workers = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	// File values override defaults
	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 8, config.Jobs.Workers)

	// Unset keys keep their defaults
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 10, config.Crawler.MaxPages)
}

func TestLoadFromFilesLayering(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(base, []byte("[server]\nport = 7000\nhost = \"0.0.0.0\"\n"), 0o644))
	require.NoError(t, os.WriteFile(override, []byte("[server]\nport = 7001\n"), 0o644))

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	// Later file wins, earlier file still contributes its other keys
	assert.Equal(t, 7001, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles("/no/such/file.toml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INVENIO_ENV", "production")
	t.Setenv("INVENIO_SERVER_PORT", "9999")
	t.Setenv("INVENIO_JOBS_WORKERS", "5")
	t.Setenv("INVENIO_SCHEDULER_CACHE_SWEEP", "15 2 * * *")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, 5, config.Jobs.Workers)
	assert.Equal(t, "15 2 * * *", config.Scheduler.CacheSweepSchedule)
}

func TestEnvOverridesIgnoreInvalidValues(t *testing.T) {
	t.Setenv("INVENIO_SERVER_PORT", "not-a-number")
	t.Setenv("INVENIO_JOBS_WORKERS", "-2")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 8085, config.Server.Port)
	assert.Equal(t, 3, config.Jobs.Workers)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 9191, "0.0.0.0")
	assert.Equal(t, 9191, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	// Zero values leave the config untouched
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 9191, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestValidateJobSchedule(t *testing.T) {
	assert.NoError(t, ValidateJobSchedule("0 3 * * *"))
	assert.NoError(t, ValidateJobSchedule("*/10 * * * *"))
	assert.NoError(t, ValidateJobSchedule("30 3 * * 1"))

	// Every minute is below the floor
	assert.Error(t, ValidateJobSchedule("* * * * *"))
	assert.Error(t, ValidateJobSchedule("*/2 * * * *"))

	// Malformed expressions
	assert.Error(t, ValidateJobSchedule("not a cron"))
	assert.Error(t, ValidateJobSchedule(""))
}

func TestIsProduction(t *testing.T) {
	config := NewDefaultConfig()
	assert.False(t, config.IsProduction())

	config.Environment = "production"
	assert.True(t, config.IsProduction())

	config.Environment = " PROD "
	assert.True(t, config.IsProduction())

	config.Environment = "staging"
	assert.False(t, config.IsProduction())
}