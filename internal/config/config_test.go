package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultConfig(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", filepath.Join(tempDir, "home"))

	cfg := Load()

	if cfg == nil {
		t.Fatal("Load() returned nil")
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, defaultRequestTimeout)
	}
	if cfg.DialTimeout != defaultDialTimeout {
		t.Errorf("DialTimeout = %v, want %v", cfg.DialTimeout, defaultDialTimeout)
	}
	if cfg.ListenAddress != defaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.ListenAddress, defaultListenAddress)
	}
	if cfg.PeerAddress != "" {
		t.Errorf("PeerAddress = %q, want empty", cfg.PeerAddress)
	}

	// First run writes the defaults to disk
	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config not saved: %v", err)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", filepath.Join(tempDir, "home"))

	cfg := &Config{
		ShowHidden:     true,
		PeerAddress:    "10.0.0.7:7001",
		ListenAddress:  ":9000",
		RequestTimeout: 45 * time.Second,
		DialTimeout:    2 * time.Second,
		Debug:          true,
	}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loadedCfg := Load()

	if loadedCfg.ShowHidden != cfg.ShowHidden {
		t.Errorf("ShowHidden mismatch: got %v, want %v", loadedCfg.ShowHidden, cfg.ShowHidden)
	}
	if loadedCfg.PeerAddress != cfg.PeerAddress {
		t.Errorf("PeerAddress mismatch: got %q, want %q", loadedCfg.PeerAddress, cfg.PeerAddress)
	}
	if loadedCfg.ListenAddress != cfg.ListenAddress {
		t.Errorf("ListenAddress mismatch: got %q, want %q", loadedCfg.ListenAddress, cfg.ListenAddress)
	}
	if loadedCfg.RequestTimeout != cfg.RequestTimeout {
		t.Errorf("RequestTimeout mismatch: got %v, want %v", loadedCfg.RequestTimeout, cfg.RequestTimeout)
	}
	if loadedCfg.DialTimeout != cfg.DialTimeout {
		t.Errorf("DialTimeout mismatch: got %v, want %v", loadedCfg.DialTimeout, cfg.DialTimeout)
	}
	if !loadedCfg.Debug {
		t.Error("Debug not persisted")
	}
}

func TestRequestTimeoutBounds(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"too low", 10 * time.Millisecond, minRequestTimeout},
		{"too high", time.Hour, maxRequestTimeout},
		{"in range", 20 * time.Second, 20 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))

			cfg := defaults()
			cfg.RequestTimeout = tt.in
			if err := Save(cfg); err != nil {
				t.Fatalf("Save() failed: %v", err)
			}

			if got := Load().RequestTimeout; got != tt.want {
				t.Errorf("RequestTimeout = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	t.Setenv("FERRY_PEER_ADDRESS", "peer.lan:7001")

	cfg := Load()
	if cfg.PeerAddress != "peer.lan:7001" {
		t.Errorf("PeerAddress = %q, want env override", cfg.PeerAddress)
	}
}

func TestCorruptConfigFallsBackToDefaults(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Errorf("expected defaults after corrupt file, got %+v", cfg)
	}
}
