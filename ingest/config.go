package ingest

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moltcities/pulse/ingest/internal/apifetch"
	"github.com/moltcities/pulse/ingest/internal/scheduler"
)

// Config holds all pulse ingestion configuration.
type Config struct {
	DBPath    string           `yaml:"db_path"`
	API       apifetch.Config  `yaml:"api"`
	Scheduler scheduler.Config `yaml:"scheduler"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "pulse.db"
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Scheduler.Interval <= 0 {
		c.Scheduler.Interval = time.Hour
	}
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
