package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/talgya/anthology/internal/engine"
)

// Settings are the runtime knobs of a simulation run.
type Settings struct {
	Seed          int64         `yaml:"seed" env:"ANTHOLOGY_SEED"`
	DBPath        string        `yaml:"db_path" env:"ANTHOLOGY_DB_PATH"`
	DecayInterval uint64        `yaml:"decay_interval" env:"ANTHOLOGY_DECAY_INTERVAL"`
	DecayAmount   float64       `yaml:"decay_amount" env:"ANTHOLOGY_DECAY_AMOUNT"`
	Workers       int           `yaml:"workers" env:"ANTHOLOGY_WORKERS"`
	LogLevel      string        `yaml:"log_level" env:"ANTHOLOGY_LOG_LEVEL"`
	TickInterval  time.Duration `yaml:"tick_interval" env:"ANTHOLOGY_TICK_INTERVAL"`
	SaveEvery     uint64        `yaml:"save_every" env:"ANTHOLOGY_SAVE_EVERY"` // Ticks between autosaves; 0 disables
	MaxEvents     int           `yaml:"max_events" env:"ANTHOLOGY_MAX_EVENTS"`
}

// DefaultSettings mirrors engine.DefaultConfig and runs unpaced.
func DefaultSettings() Settings {
	ec := engine.DefaultConfig()
	return Settings{
		DBPath:        "anthology.db",
		DecayInterval: ec.DecayInterval,
		DecayAmount:   ec.DecayAmount,
		LogLevel:      "info",
		SaveEvery:     engine.TicksPerSimHour,
		MaxEvents:     ec.MaxEvents,
	}
}

// LoadSettings applies defaults, then the YAML file at path when it exists,
// then environment overrides. An empty path skips the file.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return s, fmt.Errorf("read settings: %w", err)
		default:
			if err := yaml.Unmarshal(data, &s); err != nil {
				return s, configErr(path, err)
			}
		}
	}
	if err := env.Parse(&s); err != nil {
		return s, configErr("environment", err)
	}
	if _, err := parseLevel(s.LogLevel); err != nil {
		return s, configErr("log_level", err)
	}
	if s.Workers < 0 {
		return s, configErr("workers", fmt.Errorf("must not be negative, got %d", s.Workers))
	}
	return s, nil
}

// EngineConfig converts the settings into the simulation configuration.
func (s Settings) EngineConfig() engine.Config {
	return engine.Config{
		Seed:          s.Seed,
		DecayInterval: s.DecayInterval,
		DecayAmount:   s.DecayAmount,
		Workers:       s.Workers,
		MaxEvents:     s.MaxEvents,
	}
}

// SlogLevel returns the configured log level, defaulting to info.
func (s Settings) SlogLevel() slog.Level {
	l, err := parseLevel(s.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
