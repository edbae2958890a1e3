package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "./static/global_system.json", cfg.Snapshot.Path)
	assert.Equal(t, 5*time.Minute, cfg.Snapshot.RefreshInterval)
	assert.Equal(t, 5, cfg.Snapshot.Keep)
	assert.Equal(t, 6, cfg.Snapshot.MaxLoadsPerMinute)
	assert.Equal(t, "./data/dexdash.db", cfg.Database.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("SNAPSHOT_REFRESH_INTERVAL", "30s")
	t.Setenv("SNAPSHOT_KEEP", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.App.Development())
	assert.Equal(t, 30*time.Second, cfg.Snapshot.RefreshInterval)
	assert.Equal(t, 2, cfg.Snapshot.Keep)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("DATABASE_PATH", "")
	os.Unsetenv("DATABASE_PATH")

	err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DATABASE_PATH=/tmp/from-dotenv.db\n"), 0o600)
	require.NoError(t, err)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Database.Path)
}

func TestLoad_InvalidDuration(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SNAPSHOT_REFRESH_INTERVAL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:      App{Environment: "test", LogLevel: "debug"},
			Snapshot: Snapshot{Path: "payload.json", RefreshInterval: time.Minute, Keep: 1, MaxLoadsPerMinute: 1},
			Database: Database{Path: ":memory:"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown environment", mutate: func(c *Config) { c.App.Environment = "staging" }, wantErr: true},
		{name: "unknown log level", mutate: func(c *Config) { c.App.LogLevel = "trace" }, wantErr: true},
		{name: "missing snapshot path", mutate: func(c *Config) { c.Snapshot.Path = "" }, wantErr: true},
		{name: "interval too short", mutate: func(c *Config) { c.Snapshot.RefreshInterval = time.Millisecond }, wantErr: true},
		{name: "negative keep", mutate: func(c *Config) { c.Snapshot.Keep = -1 }, wantErr: true},
		{name: "zero load budget", mutate: func(c *Config) { c.Snapshot.MaxLoadsPerMinute = 0 }, wantErr: true},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir switches the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
