package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigPrefersCwdFallback(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
server:
  host: "127.0.0.1"
  port: 9091
crawl:
  seed_url: "https://www.comune.test/"
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	defer os.Chdir(oldWd)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Server.Port != 9091 {
		t.Errorf("port = %d, want 9091", cfg.Server.Port)
	}
	if filepath.Base(resolved) != "config.yaml" || filepath.Dir(resolved) == filepath.Dir(defaultConfigPath) {
		t.Errorf("resolved path = %q, expected the cwd fallback", resolved)
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug flag not loaded")
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
}
