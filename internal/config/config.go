// Package config resolves foundry's runtime configuration: the artifact
// root directory and .env loading. Tracker credentials live in the
// tracker packages.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// RootDirName is the per-project directory holding foundry's artifacts.
const RootDirName = ".foundry"

// EnvRoot overrides where the artifact directory lives (mainly for tests
// and the MCP server, which may be launched outside the project).
const EnvRoot = "FOUNDRY_ROOT"

// LoadDotenv loads a .env file from the working directory when one exists.
// A missing file is not an error; a malformed one is reported but does not
// abort, matching how credentials are otherwise optional until a command
// actually talks to Linear.
func LoadDotenv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

// Root returns the artifact directory for the current invocation:
// FOUNDRY_ROOT if set, otherwise ./.foundry.
func Root() string {
	if v := os.Getenv(EnvRoot); v != "" {
		return v
	}
	wd, err := os.Getwd()
	if err != nil {
		return RootDirName
	}
	return filepath.Join(wd, RootDirName)
}
