package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewstate/pkg/mode"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, mode.ModeSource, cfg.DefaultMode())
	assert.True(t, cfg.IsManagedKind("markdown"))
	assert.False(t, cfg.IsManagedKind("plaintext"))
	assert.NotEmpty(t, cfg.DatabasePath())
}

func TestLoad_ParsesSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
default_mode: preview
database: /tmp/custom.db
managed_kinds:
  - markdown
  - asciidoc
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, mode.ModePreview, cfg.DefaultMode())
	assert.Equal(t, "/tmp/custom.db", cfg.DatabasePath())
	assert.True(t, cfg.IsManagedKind("asciidoc"))
}

func TestLoad_RejectsInvalidDefaultMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_mode: rendered\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_mode: [unclosed\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSetDefaultMode_TakesEffectImmediately(t *testing.T) {
	cfg := Default()
	assert.Equal(t, mode.ModeSource, cfg.DefaultMode())

	cfg.SetDefaultMode(mode.ModePreview)
	assert.Equal(t, mode.ModePreview, cfg.DefaultMode())
}
