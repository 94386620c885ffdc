package installer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallCreatesConfig(t *testing.T) {
	home := t.TempDir()

	path, err := Install(home, TargetCursor, "/usr/local/bin/foundry")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cursor", "mcp.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg struct {
		MCPServers map[string]struct {
			Command string   `json:"command"`
			Args    []string `json:"args"`
		} `json:"mcpServers"`
	}
	require.NoError(t, json.Unmarshal(data, &cfg))
	require.Contains(t, cfg.MCPServers, "foundry")
	assert.Equal(t, "/usr/local/bin/foundry", cfg.MCPServers["foundry"].Command)
	assert.Equal(t, []string{"serve"}, cfg.MCPServers["foundry"].Args)
}

func TestInstallPreservesExistingEntries(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".claude")
	require.NoError(t, os.MkdirAll(dir, 0755))
	existing := `{
  "mcpServers": {"other": {"command": "/bin/other", "args": []}},
  "theme": "dark"
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp.json"), []byte(existing), 0644))

	_, err := Install(home, TargetClaude, "/bin/foundry")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "mcp.json"))
	require.NoError(t, err)
	var cfg map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &cfg))

	assert.Contains(t, string(cfg["mcpServers"]), "other")
	assert.Contains(t, string(cfg["mcpServers"]), "foundry")
	assert.Contains(t, string(cfg["theme"]), "dark")
}

func TestInstallRejectsUnknownTarget(t *testing.T) {
	_, err := Install(t.TempDir(), Target("emacs"), "/bin/foundry")
	assert.Error(t, err)
}

func TestInstallRejectsCorruptConfig(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".cursor")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp.json"), []byte("{broken"), 0644))

	_, err := Install(home, TargetCursor, "/bin/foundry")
	assert.Error(t, err, "never clobber a config we cannot parse")
}
