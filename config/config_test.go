package config

import (
	"testing"

	"stepperd/core"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Chip != "gpiochip0" {
		t.Errorf("chip = %q, want gpiochip0", cfg.Chip)
	}
	if cfg.Pins.Enable != 2 || cfg.Pins.Direction != 3 || cfg.Pins.Step != 4 {
		t.Errorf("unexpected default pins %+v", cfg.Pins)
	}
	if cfg.Pins.LowerSwitch != -1 || cfg.Pins.UpperSwitch != -1 {
		t.Errorf("switches should default to unconfigured, got %+v", cfg.Pins)
	}
	if cfg.Ramp != 5 {
		t.Errorf("ramp = %d, want 5", cfg.Ramp)
	}
	if cfg.LowerLimit != core.DefaultLowerLimit || cfg.UpperLimit != core.DefaultUpperLimit {
		t.Errorf("unexpected default limits %d..%d", cfg.LowerLimit, cfg.UpperLimit)
	}
	if cfg.Serial.Baud != 115200 {
		t.Errorf("baud = %d, want 115200", cfg.Serial.Baud)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load([]byte(`{
		"chip": "gpiochip1",
		"pins": {"enable": 17, "direction": 27, "step": 22, "lower_switch": 5, "upper_switch": 6},
		"serial": {"device": "/dev/ttyUSB0", "baud": 230400},
		"guard_both_sides": true,
		"lower_limit": -100000,
		"upper_limit": 100000,
		"ramp": 8
	}`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Chip != "gpiochip1" {
		t.Errorf("chip = %q", cfg.Chip)
	}
	if cfg.Pins.LowerSwitch != 5 || cfg.Pins.UpperSwitch != 6 {
		t.Errorf("switch pins = %+v", cfg.Pins)
	}
	if !cfg.GuardBothSides {
		t.Error("guard_both_sides not applied")
	}
	if cfg.LowerLimit != -100000 || cfg.UpperLimit != 100000 {
		t.Errorf("limits = %d..%d", cfg.LowerLimit, cfg.UpperLimit)
	}
	if cfg.Ramp != 8 {
		t.Errorf("ramp = %d", cfg.Ramp)
	}
	if cfg.Serial.Device != "/dev/ttyUSB0" || cfg.Serial.Baud != 230400 {
		t.Errorf("serial = %+v", cfg.Serial)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	bad := []string{
		`{"ramp": 10}`,
		`{"ramp": -1}`,
		`{"lower_limit": 5}`,
		`{"upper_limit": -5}`,
		`{"serial": {"baud": 0}}`,
		`not json`,
	}

	for _, in := range bad {
		if _, err := Load([]byte(in)); err == nil {
			t.Errorf("Load(%q) should fail", in)
		}
	}
}
