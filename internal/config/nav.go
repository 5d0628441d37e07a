package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// NavConfig holds the navigation tuning parameters. Values come from an
// optional TOML file; anything unset keeps the defaults below.
type NavConfig struct {
	ArrivalThresholdMeters   float64 `toml:"arrival_threshold_meters"`
	DeviationThresholdMeters float64 `toml:"deviation_threshold_meters"`
	DeviationSamples         int     `toml:"deviation_samples"`
	MinMoveMeters            float64 `toml:"min_move_meters"`
	LookaheadMeters          float64 `toml:"lookahead_meters"`
	AutoContinue             bool    `toml:"auto_continue"`

	DebounceMillis      int `toml:"debounce_millis"`
	MinFetchGapMillis   int `toml:"min_fetch_gap_millis"`
	CacheTTLSeconds     int `toml:"cache_ttl_seconds"`
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`

	// Live speed below the floor falls back to the per-mode nominal speed.
	SpeedFloorMPS      float64 `toml:"speed_floor_mps"`
	DrivingSpeedMPS    float64 `toml:"driving_speed_mps"`
	MotorcycleSpeedMPS float64 `toml:"motorcycle_speed_mps"`
	WalkingSpeedMPS    float64 `toml:"walking_speed_mps"`
}

// DefaultNavConfig mirrors the tuned values the dispatch client shipped with.
func DefaultNavConfig() NavConfig {
	return NavConfig{
		ArrivalThresholdMeters:   50,
		DeviationThresholdMeters: 50,
		DeviationSamples:         3,
		MinMoveMeters:            25,
		LookaheadMeters:          150,
		AutoContinue:             false,
		DebounceMillis:           500,
		MinFetchGapMillis:        600,
		CacheTTLSeconds:          30,
		FetchTimeoutSeconds:      15,
		SpeedFloorMPS:            1.5,
		DrivingSpeedMPS:          11,
		MotorcycleSpeedMPS:       9,
		WalkingSpeedMPS:          1.4,
	}
}

// LoadNavConfig reads the TOML file at path over the defaults. A missing
// file is not an error; a malformed one is.
func LoadNavConfig(path string) (NavConfig, error) {
	cfg := DefaultNavConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load nav config %q: %w", path, err)
	}

	if cfg.DeviationSamples < 1 {
		cfg.DeviationSamples = 1
	}
	if cfg.ArrivalThresholdMeters <= 0 {
		return cfg, fmt.Errorf("load nav config %q: arrival_threshold_meters must be positive", path)
	}
	if cfg.DeviationThresholdMeters <= 0 {
		return cfg, fmt.Errorf("load nav config %q: deviation_threshold_meters must be positive", path)
	}

	return cfg, nil
}

func (c NavConfig) Debounce() time.Duration { return time.Duration(c.DebounceMillis) * time.Millisecond }

func (c NavConfig) MinFetchGap() time.Duration {
	return time.Duration(c.MinFetchGapMillis) * time.Millisecond
}

func (c NavConfig) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSeconds) * time.Second }

func (c NavConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// NominalSpeed returns the assumed travel speed for a mode in m/s.
func (c NavConfig) NominalSpeed(mode string) float64 {
	switch mode {
	case "walking":
		return c.WalkingSpeedMPS
	case "motorcycle":
		return c.MotorcycleSpeedMPS
	default:
		return c.DrivingSpeedMPS
	}
}
