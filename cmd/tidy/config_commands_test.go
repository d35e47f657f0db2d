package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	_, configPath, socket := setupLocalEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, socket, configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, socket, configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// a second init without --overwrite refuses to clobber
	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, socket, configPath)
	if err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestConfigShowListsRules(t *testing.T) {
	_, configPath, socket := setupLocalEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, socket, configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Documents")
	requireContains(t, out, ".pdf")
	requireContains(t, out, "Mode:")
}
