package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runrelay.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Dispatch.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Dispatch.BackoffStep)
	assert.Equal(t, 10*time.Minute, cfg.Dispatch.Lookback)
	assert.Equal(t, 10*time.Minute, cfg.Status.Lookback)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.OverridesAllowed())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
environment: production
github:
  token: file-token
target:
  slug: acme/widgets
  branch: develop
  workflow_file: build.yml
dispatch:
  max_attempts: 3
status:
  lookback: 1800000000000
server:
  listen: ":9999"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.GitHub.Token)
	assert.Equal(t, "acme/widgets", cfg.Target.Slug)
	assert.Equal(t, "develop", cfg.Target.Branch)
	assert.Equal(t, 3, cfg.Dispatch.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Status.Lookback)
	assert.Equal(t, ":9999", cfg.Server.Listen)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
github:
  token: file-token
target:
  slug: acme/widgets
`)
	t.Setenv("RUNRELAY_GITHUB_TOKEN", "env-token")
	t.Setenv("GITHUB_REPO_SLUG", "env/repo")
	t.Setenv("RUNRELAY_STATUS_LOOKBACK", "30m")
	t.Setenv("RUNRELAY_DISPATCH_MAX_ATTEMPTS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, "env/repo", cfg.Target.Slug)
	assert.Equal(t, 30*time.Minute, cfg.Status.Lookback)
	assert.Equal(t, 7, cfg.Dispatch.MaxAttempts)
}

func TestGitHubTokenFallbackEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "fallback-token")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "fallback-token", cfg.GitHub.Token)
}

func TestMissingTokenIsNotALoadError(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.GitHub.Token)
}

func TestOverridesAllowed(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"closed by default", Config{}, false},
		{"explicit opt-in", Config{Target: Target{AllowOverrides: true}}, true},
		{"local environment", Config{Environment: "local"}, true},
		{"production stays closed", Config{Environment: "production"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.OverridesAllowed())
		})
	}
}

func TestValidation(t *testing.T) {
	testCases := []struct {
		name     string
		contents string
	}{
		{"negative attempts", "dispatch:\n  max_attempts: -1\n"},
		{"bad slug", "target:\n  slug: not-a-slug\n"},
		{"slug with empty repo", "target:\n  slug: acme/\n"},
		{"slug with empty owner", "target:\n  slug: /widgets\n"},
		{"slug with extra slash", "target:\n  slug: acme/widgets/extra\n"},
		{"negative lookback", "status:\n  lookback: -5\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.contents))
			assert.Error(t, err)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "target: [not, a, mapping]"))
	assert.Error(t, err)
}
