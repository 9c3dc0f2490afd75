// Package config loads daemon configuration from YAML with sane
// defaults. Nothing environment-specific is hardcoded in the engine;
// everything tunable arrives through here.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/presence-engine/internal/delivery"
	"github.com/sweeney/presence-engine/internal/logic"
	"github.com/sweeney/presence-engine/internal/pipeline"
)

// Config is the top-level daemon configuration.
type Config struct {
	HTTPAddr  string `yaml:"http_addr"`
	StorePath string `yaml:"store_path"`

	MQTT      MQTTConfig      `yaml:"mqtt"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	Certainty CertaintyConfig `yaml:"certainty"`

	// AbsenceSweepMs is how often tracked tags are checked for silence.
	AbsenceSweepMs int64 `yaml:"absence_sweep_ms"`

	// DefaultProfile names the profile used for tags without an
	// explicit assignment; empty selects the built-in default.
	DefaultProfile string                   `yaml:"default_profile"`
	Profiles       map[string]ProfileConfig `yaml:"profiles"`
}

// MQTTConfig configures the inbound sighting listener. An empty broker
// disables MQTT ingestion (HTTP ingestion always works).
type MQTTConfig struct {
	Broker string `yaml:"broker"`
}

// DeliveryConfig configures the event delivery subsystem.
type DeliveryConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Token           string `yaml:"token"`
	QueueCapacity   int    `yaml:"queue_capacity"`
	MaxAttempts     int    `yaml:"max_attempts"`
	BackoffBaseMs   int64  `yaml:"backoff_base_ms"`
	SweepIntervalMs int64  `yaml:"sweep_interval_ms"`
	TimeoutMs       int64  `yaml:"timeout_ms"`
}

// CertaintyConfig configures the display confidence constants.
type CertaintyConfig struct {
	BestExpected       int   `yaml:"best_expected"`
	WorstExpected      int   `yaml:"worst_expected"`
	MaxAbsenceWindowMs int64 `yaml:"max_absence_window_ms"`
}

// ProfileConfig is one named entrance profile.
type ProfileConfig struct {
	OutsideThreshold   int   `yaml:"outside_threshold"`
	InsideThreshold    int   `yaml:"inside_threshold"`
	TransitionWindowMs int64 `yaml:"transition_window_ms"`
	ConfirmationCount  int   `yaml:"confirmation_count"`
	DebounceMs         int64 `yaml:"debounce_ms"`
	AbsenceWarningMs   int64 `yaml:"absence_warning_ms"`
	AbsenceTimeoutMs   int64 `yaml:"absence_timeout_ms"`
}

// Default returns a complete runnable configuration.
func Default() Config {
	return Config{
		HTTPAddr:  ":8080",
		StorePath: "presence.db",
		Delivery: DeliveryConfig{
			Endpoint:        "http://127.0.0.1:8123/api/webhook/presence",
			QueueCapacity:   50,
			MaxAttempts:     3,
			BackoffBaseMs:   500,
			SweepIntervalMs: 30_000,
			TimeoutMs:       5_000,
		},
		Certainty: CertaintyConfig{
			BestExpected:       -40,
			WorstExpected:      -90,
			MaxAbsenceWindowMs: 120_000,
		},
		AbsenceSweepMs: 15_000,
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Delivery.QueueCapacity < 1 {
		return fmt.Errorf("delivery.queue_capacity must be at least 1")
	}
	if c.Delivery.MaxAttempts < 1 {
		return fmt.Errorf("delivery.max_attempts must be at least 1")
	}
	if c.Delivery.SweepIntervalMs <= 0 {
		return fmt.Errorf("delivery.sweep_interval_ms must be positive")
	}
	if c.Delivery.BackoffBaseMs < 0 {
		return fmt.Errorf("delivery.backoff_base_ms must not be negative")
	}
	if c.Certainty.BestExpected <= c.Certainty.WorstExpected {
		return fmt.Errorf("certainty.best_expected must exceed worst_expected")
	}
	if c.Certainty.MaxAbsenceWindowMs <= 0 {
		return fmt.Errorf("certainty.max_absence_window_ms must be positive")
	}
	if c.AbsenceSweepMs <= 0 {
		return fmt.Errorf("absence_sweep_ms must be positive")
	}

	for name, p := range c.Profiles {
		if p.InsideThreshold <= p.OutsideThreshold {
			return fmt.Errorf("profile %s: inside_threshold must exceed outside_threshold", name)
		}
		if p.ConfirmationCount < 1 {
			return fmt.Errorf("profile %s: confirmation_count must be at least 1", name)
		}
		if p.TransitionWindowMs <= 0 {
			return fmt.Errorf("profile %s: transition_window_ms must be positive", name)
		}
		if p.DebounceMs < 0 {
			return fmt.Errorf("profile %s: debounce_ms must not be negative", name)
		}
		if p.AbsenceWarningMs < 0 {
			return fmt.Errorf("profile %s: absence_warning_ms must not be negative", name)
		}
		if p.AbsenceTimeoutMs <= 0 {
			return fmt.Errorf("profile %s: absence_timeout_ms must be positive", name)
		}
	}

	if c.DefaultProfile != "" {
		if _, ok := c.Profiles[c.DefaultProfile]; !ok {
			return fmt.Errorf("default_profile %q not defined in profiles", c.DefaultProfile)
		}
	}
	return nil
}

func (p ProfileConfig) profile(name string) logic.Profile {
	return logic.Profile{
		Name:              name,
		OutsideThreshold:  p.OutsideThreshold,
		InsideThreshold:   p.InsideThreshold,
		TransitionWindow:  time.Duration(p.TransitionWindowMs) * time.Millisecond,
		ConfirmationCount: p.ConfirmationCount,
		DebounceInterval:  time.Duration(p.DebounceMs) * time.Millisecond,
		AbsenceWarning:    time.Duration(p.AbsenceWarningMs) * time.Millisecond,
		AbsenceTimeout:    time.Duration(p.AbsenceTimeoutMs) * time.Millisecond,
	}
}

// ProfileSet builds the pipeline's profile selector.
func (c Config) ProfileSet() *pipeline.Profiles {
	named := make(map[string]logic.Profile, len(c.Profiles))
	for name, p := range c.Profiles {
		named[name] = p.profile(name)
	}

	def := logic.DefaultProfile()
	if c.DefaultProfile != "" {
		def = named[c.DefaultProfile]
	}
	return pipeline.NewProfiles(def, named)
}

// DeliveryConfig builds the deliverer's tuning constants.
func (c Config) DeliveryConfig() delivery.Config {
	return delivery.Config{
		QueueCapacity: c.Delivery.QueueCapacity,
		MaxAttempts:   c.Delivery.MaxAttempts,
		BackoffBase:   time.Duration(c.Delivery.BackoffBaseMs) * time.Millisecond,
		SweepInterval: time.Duration(c.Delivery.SweepIntervalMs) * time.Millisecond,
	}
}

// DeliveryTimeout returns the per-request delivery timeout.
func (c Config) DeliveryTimeout() time.Duration {
	return time.Duration(c.Delivery.TimeoutMs) * time.Millisecond
}

// CertaintyConstants builds the display confidence constants.
func (c Config) CertaintyConstants() logic.CertaintyConstants {
	return logic.CertaintyConstants{
		BestExpected:     c.Certainty.BestExpected,
		WorstExpected:    c.Certainty.WorstExpected,
		MaxAbsenceWindow: time.Duration(c.Certainty.MaxAbsenceWindowMs) * time.Millisecond,
	}
}

// AbsenceSweepInterval returns how often the absence sweep runs.
func (c Config) AbsenceSweepInterval() time.Duration {
	return time.Duration(c.AbsenceSweepMs) * time.Millisecond
}
