package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), ".kiln.yaml"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadConfig_Full(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".kiln.yaml")
	data := []byte("manifest: ci/kiln.cue\nhistory: .kiln/history.db\nno_color: true\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ci/kiln.cue", cfg.Manifest)
	assert.Equal(t, ".kiln/history.db", cfg.History)
	assert.True(t, cfg.NoColor)
}

func TestLoadConfig_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".kiln.yaml")
	require.NoError(t, os.WriteFile(path, []byte("manifests: kiln.cue\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifests")
}

func TestManifestPath_Precedence(t *testing.T) {
	cfg := &Config{Manifest: "from-config.cue"}

	assert.Equal(t, "from-flag.cue", cfg.ManifestPath("from-flag.cue"))
	assert.Equal(t, "from-config.cue", cfg.ManifestPath(""))
	assert.Equal(t, "kiln.cue", (&Config{}).ManifestPath(""))
}

func TestHistoryPath_Precedence(t *testing.T) {
	cfg := &Config{History: "from-config.db"}

	assert.Equal(t, "from-flag.db", cfg.HistoryPath("from-flag.db"))
	assert.Equal(t, "from-config.db", cfg.HistoryPath(""))

	fallback := (&Config{}).HistoryPath("")
	assert.Equal(t, "history.db", filepath.Base(fallback))
	assert.Contains(t, fallback, "kiln")
}
