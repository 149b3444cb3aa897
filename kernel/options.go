package kernel

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// BootConfig mirrors the handful of boot-time command-line flags the outer
// kernel consumes and exposes to the core as booleans/integers (§6): the
// scheduling policy switch and the test RNG seed, plus the knobs the source
// kernel hardcodes as constants but which are reasonable to make
// configurable in a from-scratch rewrite (tick frequency).
type BootConfig struct {
	// MLFQS selects the multi-level feedback queue scheduler. Default false
	// selects strict priority scheduling with donation.
	MLFQS bool `toml:"mlfqs"`

	// RandomSeed holds the -rs seed value. It is carried in the
	// configuration only: nothing in this module reads it or seeds a
	// random source from it.
	RandomSeed int64 `toml:"random_seed"`

	// TimerFreq is TIMER_FREQ, in Hz. Must be in [19, 1000]; defaults to 100.
	TimerFreq int `toml:"timer_freq"`
}

// DefaultBootConfig returns the configuration the source kernel boots with
// absent any command-line flags.
func DefaultBootConfig() BootConfig {
	return BootConfig{
		MLFQS:      false,
		RandomSeed: 0,
		TimerFreq:  TimerFreq,
	}
}

// LoadBootConfigFile reads a BootConfig from a TOML file, overlaying it on
// top of DefaultBootConfig. A missing TimerFreq (zero) falls back to the
// default rather than failing validation.
func LoadBootConfigFile(path string) (BootConfig, error) {
	cfg := DefaultBootConfig()
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("kernel: load boot config: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("kernel: load boot config: %w", err)
	}
	if cfg.TimerFreq == 0 {
		cfg.TimerFreq = TimerFreq
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration against the constraints in §6.
func (c BootConfig) Validate() error {
	if c.TimerFreq < 19 || c.TimerFreq > 1000 {
		return fmt.Errorf("kernel: timer_freq %d out of range [19, 1000]", c.TimerFreq)
	}
	return nil
}
