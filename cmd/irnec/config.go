package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sparques/irnec/nec"
)

// Config holds the settings that may come from a YAML file.
type Config struct {
	RxPin         string        `yaml:"rx_pin"`
	TxPin         string        `yaml:"tx_pin"`
	Protocol      string        `yaml:"protocol"`
	RepeatTimeout time.Duration `yaml:"repeat_timeout"`
	LogLevel      string        `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		RxPin:         "GPIO17",
		TxPin:         "GPIO18",
		Protocol:      "nec",
		RepeatTimeout: nec.DefaultRepeatTimeout,
		LogLevel:      "info",
	}
}

// loadConfig overlays the YAML file at path on the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) protocol() (nec.Protocol, error) {
	switch c.Protocol {
	case "nec":
		return nec.ProtocolNEC, nil
	case "keyestudio":
		return nec.ProtocolKeyestudio, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q", c.Protocol)
	}
}

func (c Config) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
