// Package installer drops foundry's MCP server registration into an AI
// assistant's configuration directory, merging with whatever servers are
// already registered.
package installer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Target names a supported assistant environment.
type Target string

const (
	TargetCursor Target = "cursor"
	TargetClaude Target = "claude"
)

// Targets lists the supported environments in display order.
var Targets = []Target{TargetCursor, TargetClaude}

// configPath returns the MCP config file for a target under home.
func configPath(home string, target Target) (string, error) {
	switch target {
	case TargetCursor:
		return filepath.Join(home, ".cursor", "mcp.json"), nil
	case TargetClaude:
		return filepath.Join(home, ".claude", "mcp.json"), nil
	default:
		return "", fmt.Errorf("unknown install target %q", target)
	}
}

// serverEntry is the registration written under mcpServers.
type serverEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// Install registers the foundry binary at execPath as an MCP server for
// the target assistant, preserving unrelated entries in the config file.
// It returns the path written.
func Install(home string, target Target, execPath string) (string, error) {
	path, err := configPath(home, target)
	if err != nil {
		return "", err
	}

	cfg := map[string]json.RawMessage{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return "", fmt.Errorf("existing config at %s is not valid JSON: %w", path, err)
		}
	}

	servers := map[string]serverEntry{}
	if raw, ok := cfg["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return "", fmt.Errorf("mcpServers in %s has unexpected shape: %w", path, err)
		}
	}
	servers["foundry"] = serverEntry{Command: execPath, Args: []string{"serve"}}

	raw, err := json.Marshal(servers)
	if err != nil {
		return "", err
	}
	cfg["mcpServers"] = raw

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
