// Scenario configuration, loaded from YAML or defaulted.

package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes a synthetic scenario: the grid world plus the scripted
// traffic that exercises the parking and analytics core.
type Config struct {
	Roads      int     `yaml:"roads"`       // number of parallel roads in the grid
	LaneLength float64 `yaml:"lane_length"` // meters per lane
	Vehicles   int     `yaml:"vehicles"`    // scripted drivers looking for parking
	Buses      int     `yaml:"buses"`       // buses looping the route
	BusStops   int     `yaml:"bus_stops"`   // stops on the route
	Horizon    int64   `yaml:"horizon"`     // simulated seconds to run for
	Seed       int64   `yaml:"seed"`        // RNG seed; same seed, same run
	Bucket     int64   `yaml:"bucket"`      // bucket width in seconds for reports
}

// DefaultConfig is a small scenario that finishes quickly.
func DefaultConfig() Config {
	return Config{
		Roads:      4,
		LaneLength: 240,
		Vehicles:   12,
		Buses:      2,
		BusStops:   3,
		Horizon:    3600,
		Seed:       42,
		Bucket:     600,
	}
}

// LoadConfig reads a YAML scenario file. Fields left out keep defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read scenario config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse scenario config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the runner cannot make sense of.
func (c Config) Validate() error {
	if c.Roads < 2 {
		return fmt.Errorf("scenario needs at least 2 roads, got %d", c.Roads)
	}
	if c.LaneLength < 3*simSpotLength {
		return fmt.Errorf("lane_length %.1f too short to hold any parking spot", c.LaneLength)
	}
	if c.Vehicles < 0 || c.Buses < 0 || c.BusStops < 0 {
		return fmt.Errorf("vehicles, buses and bus_stops must not be negative")
	}
	if c.Buses > 0 && c.BusStops < 2 {
		return fmt.Errorf("a bus route needs at least 2 stops, got %d", c.BusStops)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", c.Horizon)
	}
	if c.Bucket <= 0 {
		return fmt.Errorf("bucket must be positive, got %d", c.Bucket)
	}
	return nil
}
