package utils

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Prefork bool   `yaml:"prefork"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
		Level      string `yaml:"level"`
	} `yaml:"logger"`

	Fonts struct {
		Dir    string `yaml:"dir"`
		Family string `yaml:"family"`
	} `yaml:"fonts"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	var cfg Config
	cfg.Server.Host = ""
	cfg.Server.Port = ":8080"
	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 28
	cfg.Fonts.Dir = "assets/fonts"
	cfg.Fonts.Family = "StabilGrotesk"
	return cfg
}

// LoadConfig reads the YAML config file and applies defaults for anything the
// file leaves unset. The path comes from CONFIG_PATH, falling back to
// ./config.yaml. A missing file is fine (pure defaults); a file that exists
// but cannot be parsed panics, since running with half a config is worse than
// not starting.
func LoadConfig() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom loads configuration from an explicit path.
func LoadConfigFrom(path string) Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg
		}
		panic("config: " + err.Error())
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic("config: " + err.Error())
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Fonts.Dir == "" {
		cfg.Fonts.Dir = "assets/fonts"
	}
	if cfg.Fonts.Family == "" {
		cfg.Fonts.Family = "StabilGrotesk"
	}
	return cfg
}
