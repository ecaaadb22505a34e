package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/drakos74/wndchrm/internal/classifier"
	"github.com/drakos74/wndchrm/internal/dataset"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Path is the default location of the configuration file.
const Path = "infra/config/wndchrm.toml"

// Config is the configuration of an experiment.
type Config struct {
	Split    dataset.SplitConfig `toml:"split"`
	Weights  Weights             `toml:"weights"`
	Classify Classify            `toml:"classify"`
	Log      Log                 `toml:"log"`
	Metrics  Metrics             `toml:"metrics"`
}

// Weights configures the feature weighting.
type Weights struct {
	// Used is the fraction of features kept after weighting.
	Used float64 `toml:"used"`
}

// Classify configures the classification runs.
type Classify struct {
	Method  string `toml:"method"`
	Rank    int    `toml:"rank"`
	Splits  int    `toml:"splits"`
	Workers int    `toml:"workers"`
	Trees   int    `toml:"trees"`
	Seed    int64  `toml:"seed"`
}

// Log configures the logger.
type Log struct {
	Level string `toml:"level"`
}

// Metrics configures the prometheus endpoint, an empty address disables it.
type Metrics struct {
	Address string `toml:"address"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Split: dataset.SplitConfig{
			Ratio: 0.25,
			Tiles: 1,
		},
		Weights: Weights{
			Used: 0.15,
		},
		Classify: Classify{
			Method:  string(classifier.WND),
			Rank:    1,
			Splits:  1,
			Workers: 1,
			Trees:   100,
		},
		Log: Log{
			Level: zerolog.InfoLevel.String(),
		},
	}
}

// Load decodes the file on top of the default configuration and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("could not decode config '%s': %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config '%s': %w", path, err)
	}
	return cfg, nil
}

// MustLoad loads the config at the given path and panics if it cannot.
func MustLoad(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("could not load config: %s", err.Error()))
	}
	log.Info().Str("path", path).Msg("loaded config")
	return cfg
}

// Validate checks the ranges of the configuration values.
func (c Config) Validate() error {
	if c.Split.Ratio < 0 || c.Split.Ratio > 1 {
		return fmt.Errorf("split ratio %v outside [0,1]", c.Split.Ratio)
	}
	if c.Split.Tiles < 1 {
		return fmt.Errorf("tiles must be positive: %d", c.Split.Tiles)
	}
	if c.Weights.Used <= 0 || c.Weights.Used > 1 {
		return fmt.Errorf("used fraction %v outside (0,1]", c.Weights.Used)
	}
	if _, err := classifier.ParseMethod(c.Classify.Method); err != nil {
		return err
	}
	if c.Classify.Rank < 1 {
		return fmt.Errorf("rank must be positive: %d", c.Classify.Rank)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", c.Log.Level, err)
	}
	return nil
}

// Logger creates the console logger for the configured level.
func (c Config) Logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if level < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(level)
	}
	return log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}
