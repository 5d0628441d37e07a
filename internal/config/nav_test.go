package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadNavConfigDefaults(t *testing.T) {
	cfg, err := LoadNavConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ArrivalThresholdMeters != 50 {
		t.Errorf("arrival threshold = %f, want 50", cfg.ArrivalThresholdMeters)
	}
	if cfg.Debounce() != 500*time.Millisecond {
		t.Errorf("debounce = %s, want 500ms", cfg.Debounce())
	}
	if cfg.AutoContinue {
		t.Error("auto continue must default off")
	}
}

func TestLoadNavConfigMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadNavConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FetchTimeout() != 15*time.Second {
		t.Errorf("fetch timeout = %s, want 15s", cfg.FetchTimeout())
	}
}

func TestLoadNavConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.toml")
	content := `
arrival_threshold_meters = 30.0
deviation_samples = 5
auto_continue = true
debounce_millis = 250
walking_speed_mps = 1.2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := LoadNavConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ArrivalThresholdMeters != 30 {
		t.Errorf("arrival threshold = %f, want 30", cfg.ArrivalThresholdMeters)
	}
	if cfg.DeviationSamples != 5 {
		t.Errorf("deviation samples = %d, want 5", cfg.DeviationSamples)
	}
	if !cfg.AutoContinue {
		t.Error("auto continue override lost")
	}
	if cfg.Debounce() != 250*time.Millisecond {
		t.Errorf("debounce = %s, want 250ms", cfg.Debounce())
	}
	// Untouched values keep their defaults.
	if cfg.DeviationThresholdMeters != 50 {
		t.Errorf("deviation threshold = %f, want default 50", cfg.DeviationThresholdMeters)
	}
	if cfg.NominalSpeed("walking") != 1.2 {
		t.Errorf("walking speed = %f, want 1.2", cfg.NominalSpeed("walking"))
	}
}

func TestLoadNavConfigRejectsBadThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.toml")
	if err := os.WriteFile(path, []byte("arrival_threshold_meters = -1.0\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := LoadNavConfig(path); err == nil {
		t.Fatal("expected error for negative arrival threshold")
	}
}

func TestNominalSpeedByMode(t *testing.T) {
	cfg := DefaultNavConfig()
	if cfg.NominalSpeed("driving") != 11 {
		t.Errorf("driving = %f, want 11", cfg.NominalSpeed("driving"))
	}
	if cfg.NominalSpeed("motorcycle") != 9 {
		t.Errorf("motorcycle = %f, want 9", cfg.NominalSpeed("motorcycle"))
	}
	if cfg.NominalSpeed("walking") != 1.4 {
		t.Errorf("walking = %f, want 1.4", cfg.NominalSpeed("walking"))
	}
	// Unknown modes route like cars.
	if cfg.NominalSpeed("") != 11 {
		t.Errorf("fallback = %f, want 11", cfg.NominalSpeed(""))
	}
}
