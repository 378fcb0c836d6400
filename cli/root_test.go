// ABOUTME: Tests for command wiring: flag conflicts and missing configuration
// ABOUTME: Runs the real command tree against an isolated environment
package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactsync/config"
	"github.com/harperreed/contactsync/sync"
)

// isolate clears every config key and returns args pointing at empty files.
func isolate(t *testing.T) []string {
	t.Helper()
	for _, key := range []string{
		config.KeyNotionToken, config.KeyNotionTokenAlias, config.KeyDatabaseID,
		config.KeyGoogleClientID, config.KeyGoogleClientSecret, config.KeyGoogleRefreshToken,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("LOG_LEVEL: error\n"), 0o600))
	return []string{"--env-file", filepath.Join(dir, "missing.env"), "--config", cfgFile}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(isolate(t), args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncRejectsBothOnlyFlags(t *testing.T) {
	_, err := execute(t, "sync", "--google-only", "--notion-only")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google-only")
}

func TestSyncReportsMissingConfig(t *testing.T) {
	_, err := execute(t, "sync", "--dry-run")
	require.Error(t, err)

	var cfgErr *config.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Missing, config.KeyNotionToken)
	assert.Contains(t, cfgErr.Missing, config.KeyGoogleClientID)
}

func TestSchemaCommandsNeedNotionConfig(t *testing.T) {
	for _, name := range []string{"init-schema", "check-schema", "status"} {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, name)
			var cfgErr *config.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, []string{config.KeyNotionToken, config.KeyDatabaseID}, cfgErr.Missing)
		})
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "test")
}

func TestDirectionsFollowMode(t *testing.T) {
	assert.Equal(t, []sync.Direction{sync.Forward, sync.Reverse}, directions(sync.ModeFull))
	assert.Equal(t, []sync.Direction{sync.Forward}, directions(sync.ModeGoogleOnly))
	assert.Equal(t, []sync.Direction{sync.Reverse}, directions(sync.ModeNotionOnly))
}
