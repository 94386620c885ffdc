package main

import (
	"testing"

	"github.com/foundryhq/foundry/internal/config"
)

func TestAllCommandsRegistered(t *testing.T) {
	want := []string{"init", "spec", "link", "plan", "sync", "serve", "install", "history"}
	registered := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q is not registered on the root command", name)
		}
	}
}

func TestStoreRespectsRootOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(config.EnvRoot, tmpDir)

	s := store()
	if s.Initialized() {
		t.Fatal("fresh directory should not count as initialized")
	}
	if _, err := s.Init("demo"); err != nil {
		t.Fatalf("Failed to initialize project: %v", err)
	}
	if !s.Initialized() {
		t.Fatal("project should be initialized after Init")
	}
}
