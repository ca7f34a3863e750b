package sim

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"defaults are valid", func(c *Config) {}, true},
		{"zero cells", func(c *Config) { c.Cells = 0 }, false},
		{"negative synapses", func(c *Config) { c.SynapsesPerCell = -1 }, false},
		{"fan-in exceeds cells", func(c *Config) { c.Cells = 3; c.SynapsesPerCell = 3 }, false},
		{"zero synapses is fine", func(c *Config) { c.SynapsesPerCell = 0 }, true},
		{"zero min delay", func(c *Config) { c.MinDelay = 0 }, false},
		{"negative tfinal", func(c *Config) { c.TFinal = -1 }, false},
		{"zero dt", func(c *Config) { c.Dt = 0 }, false},
		{"negative sample dt", func(c *Config) { c.SampleDt = -0.1 }, false},
		{"zero sample dt disables probes", func(c *Config) { c.SampleDt = 0 }, true},
		{"negative workers", func(c *Config) { c.Workers = -2 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantOK && err != nil {
				t.Errorf("Validate: unexpected error %v", err)
			}
			if !tc.wantOK {
				if err == nil {
					t.Fatal("Validate: expected error, got nil")
				}
				if !errors.Is(err, ErrUsage) {
					t.Errorf("Validate: got %v, want ErrUsage", err)
				}
			}
		})
	}
}
