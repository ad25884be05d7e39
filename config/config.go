// Package config loads the daemon configuration from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"stepperd/core"
)

// Config describes the hardware wiring and startup motion settings.
type Config struct {
	// Chip is the GPIO character device name
	Chip string `json:"chip"`

	Pins   PinConfig    `json:"pins"`
	Serial SerialConfig `json:"serial"`

	// GuardBothSides checks both limit switches before every step
	// instead of only the one on the travel side
	GuardBothSides bool `json:"guard_both_sides"`

	// Soft range bounds applied at startup
	LowerLimit int64 `json:"lower_limit"`
	UpperLimit int64 `json:"upper_limit"`

	// Ramp is the startup velocity ramp factor 0-9
	Ramp int `json:"ramp"`
}

// PinConfig names the GPIO lines wired to the stepper driver board.
// Switch lines are optional; -1 leaves them unconfigured.
type PinConfig struct {
	Enable      int `json:"enable"`
	Direction   int `json:"direction"`
	Step        int `json:"step"`
	LowerSwitch int `json:"lower_switch"`
	UpperSwitch int `json:"upper_switch"`
}

// SerialConfig describes the command link.
type SerialConfig struct {
	Device string `json:"device"`
	Baud   int    `json:"baud"`
}

// Default returns the configuration used when no file is given: the
// conventional enable/direction/step wiring on the first GPIO chip, no
// switches, full range, moderate ramping.
func Default() *Config {
	return &Config{
		Chip: "gpiochip0",
		Pins: PinConfig{
			Enable:      2,
			Direction:   3,
			Step:        4,
			LowerSwitch: -1,
			UpperSwitch: -1,
		},
		Serial: SerialConfig{
			Baud: 115200,
		},
		LowerLimit: core.DefaultLowerLimit,
		UpperLimit: core.DefaultUpperLimit,
		Ramp:       5,
	}
}

// Load parses a JSON configuration. Missing fields keep their defaults.
func Load(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads and parses a JSON configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Load(data)
}

func (c *Config) validate() error {
	if c.Ramp < 0 || c.Ramp > 9 {
		return fmt.Errorf("ramp factor %d out of range 0-9", c.Ramp)
	}
	if c.LowerLimit > 0 {
		return fmt.Errorf("lower limit %d must be <= 0", c.LowerLimit)
	}
	if c.UpperLimit < 0 {
		return fmt.Errorf("upper limit %d must be >= 0", c.UpperLimit)
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("bad baud rate %d", c.Serial.Baud)
	}
	return nil
}
