package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/credstore/internal/config"
	crederrors "github.com/systmms/credstore/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFullDefinition(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Path: writeConfig(t, `
version: 0
table: team-credentials
region: eu-west-1
kmsKeyId: alias/team
endpoint: http://localhost:4566
accessKeyId: test
secretAccessKey: test
`)}
	require.NoError(t, cfg.Load())

	assert.Equal(t, "team-credentials", cfg.Definition.Table)
	assert.Equal(t, "eu-west-1", cfg.Definition.Region)
	assert.Equal(t, "alias/team", cfg.Definition.KMSKeyID)
	assert.Equal(t, "http://localhost:4566", cfg.Definition.Endpoint)
	assert.Equal(t, "test", cfg.Definition.AccessKeyID)
	assert.Equal(t, "test", cfg.Definition.SecretAccessKey)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Path: writeConfig(t, "version: 0\nregion: us-east-1\n")}
	require.NoError(t, cfg.Load())

	assert.Equal(t, config.DefaultTable, cfg.Definition.Table)
	assert.Equal(t, config.DefaultKMSKeyID, cfg.Definition.KMSKeyID)
	assert.Equal(t, "us-east-1", cfg.Definition.Region)
}

func TestLoadMissingDefaultFileUsesDefaults(t *testing.T) {
	// Relies on the process working directory, so no t.Parallel.
	t.Chdir(t.TempDir())

	cfg := &config.Config{}
	require.NoError(t, cfg.Load())

	assert.Equal(t, config.DefaultTable, cfg.Definition.Table)
	assert.Equal(t, config.DefaultKMSKeyID, cfg.Definition.KMSKeyID)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Path: filepath.Join(t.TempDir(), "nope.yaml")}
	err := cfg.Load()

	var cfgErr crederrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "path", cfgErr.Field)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Path: writeConfig(t, "table: [unclosed\n")}
	err := cfg.Load()

	var cfgErr crederrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Message, "YAML")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Path: writeConfig(t, "version: 0\ntabel: oops\n")}
	err := cfg.Load()

	var cfgErr crederrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Message, "tabel")
}

func TestLoadRejectsWrongTypes(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Path: writeConfig(t, "version: 0\ntable: 42\n")}
	err := cfg.Load()

	var cfgErr crederrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Path: writeConfig(t, "version: 3\n")}
	err := cfg.Load()

	var cfgErr crederrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "version", cfgErr.Field)
}
