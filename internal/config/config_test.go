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
	t.Setenv("ENDPOINTS_FILE", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Sync.DataDir)
	assert.Equal(t, "origin", cfg.Sync.Remote)
	assert.Equal(t, "main", cfg.Sync.DefaultBranch)
	assert.Equal(t, time.Hour, cfg.Sync.Interval)
	assert.Equal(t, 60*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, "cli", cfg.Git.Backend)
	assert.Equal(t, "F1 Data Bot", cfg.Git.UserName)
	assert.Equal(t, "bot@planc.com", cfg.Git.UserEmail)

	require.Len(t, cfg.Endpoints, 8)
	names := make([]string, 0, len(cfg.Endpoints))
	for _, e := range cfg.Endpoints {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		"current_schedule", "last_results", "current_results", "next_race",
		"driver_standings", "constructor_standings", "drivers", "constructors",
	}, names)
	assert.Equal(t, "http://api.jolpi.ca/ergast/f1/current/results.json?limit=100", cfg.Endpoints[2].URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENDPOINTS_FILE", "")
	t.Setenv("F1_API_BASE_URL", "https://mirror.example.com/f1/")
	t.Setenv("SYNC_INTERVAL", "30m")
	t.Setenv("SYNC_REMOTE", "upstream")
	t.Setenv("F1_API_TIMEOUT", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, "upstream", cfg.Sync.Remote)
	assert.Equal(t, 10, cfg.External.Timeout)
	assert.Equal(t, "https://mirror.example.com/f1/current.json", cfg.Endpoints[0].URL)
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("ENDPOINTS_FILE", "")
	// godotenv never overrides variables that are already set, even when empty
	t.Setenv("SYNC_DATA_DIR", "")
	require.NoError(t, os.Unsetenv("SYNC_DATA_DIR"))
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SYNC_DATA_DIR=snapshots\n"), 0o644))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "snapshots", cfg.Sync.DataDir)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	t.Setenv("ENDPOINTS_FILE", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("ENDPOINTS_FILE", "")
	t.Setenv("GIT_BACKEND", "svn")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_EndpointsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "endpoints.yaml")
	content := `endpoints:
  - name: drivers
    url: http://api.jolpi.ca/ergast/f1/current/drivers.json?limit=100
  - title: Pit Stops
    url: http://api.jolpi.ca/ergast/f1/current/last/pitstops.json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("ENDPOINTS_FILE", path)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Len(t, cfg.Endpoints, 2)
	assert.Equal(t, "drivers", cfg.Endpoints[0].Name)
	assert.Equal(t, "pit-stops", cfg.Endpoints[1].Name)
}

func TestLoad_EndpointsFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "invalid url",
			content: `endpoints:
  - name: drivers
    url: not a url
`,
		},
		{
			name: "duplicate names",
			content: `endpoints:
  - name: drivers
    url: http://example.com/a.json
  - name: drivers
    url: http://example.com/b.json
`,
		},
		{
			name: "path separator in name",
			content: `endpoints:
  - name: ../drivers
    url: http://example.com/a.json
`,
		},
		{
			name:    "empty table",
			content: "endpoints: []\n",
		},
		{
			name:    "malformed yaml",
			content: "endpoints: [\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "endpoints.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			t.Setenv("ENDPOINTS_FILE", path)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestDataPath(t *testing.T) {
	cfg := &Config{Sync: SyncConfig{RepoPath: "/srv/f1", DataDir: "data"}}
	assert.Equal(t, filepath.Join("/srv/f1", "data"), cfg.DataPath())
}
