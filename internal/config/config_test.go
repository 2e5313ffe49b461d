package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsExistingYAMLFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join("..", "..", "testdata", "netgramd.yaml")
	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.UDPAddr != ":19000" {
		t.Errorf("UDPAddr = %q, want :19000", cfg.UDPAddr)
	}
	if cfg.WSAddr != ":19001" {
		t.Errorf("WSAddr = %q, want :19001", cfg.WSAddr)
	}
	if cfg.Capacity != 1024 {
		t.Errorf("Capacity = %d, want 1024", cfg.Capacity)
	}
	if cfg.PongInterval != 10*time.Second {
		t.Errorf("PongInterval = %v, want 10s", cfg.PongInterval)
	}
	if !cfg.RateLimitEnabled {
		t.Error("RateLimitEnabled = false, want true")
	}
	if cfg.RateLimitBurst != 100 {
		t.Errorf("RateLimitBurst = %d, want 100", cfg.RateLimitBurst)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadWritesDefaultConfigWhenMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "netgramd.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.UDPAddr != Default().UDPAddr {
		t.Errorf("UDPAddr = %q, want default %q", cfg.UDPAddr, Default().UDPAddr)
	}

	// A second load should now find the file Load just wrote.
	cfg2, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if cfg2.UDPAddr != cfg.UDPAddr {
		t.Errorf("second load UDPAddr = %q, want %q", cfg2.UDPAddr, cfg.UDPAddr)
	}
}

func TestLoadReadsEmptyHTTPAddrAsDisabled(t *testing.T) {
	t.Parallel()

	path := filepath.Join("..", "..", "testdata", "netgramd_http_disabled.yaml")
	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "" {
		t.Errorf("HTTPAddr = %q, want empty (facade disabled)", cfg.HTTPAddr)
	}
}

func TestUpdateFromOverwritesOnlyNonZeroFields(t *testing.T) {
	t.Parallel()

	base := Default()
	override := Config{UDPAddr: ":7000"}
	base.UpdateFrom(override)

	if base.UDPAddr != ":7000" {
		t.Errorf("UDPAddr = %q, want :7000", base.UDPAddr)
	}
	if base.WSAddr != Default().WSAddr {
		t.Errorf("WSAddr = %q, want untouched default %q", base.WSAddr, Default().WSAddr)
	}
}
