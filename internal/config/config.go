package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Mode  string `yaml:"mode"`
		Level string `yaml:"level"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"catalog"`
	Quiz struct {
		AnswerSlots int    `yaml:"answerSlots"`
		RevealDelay string `yaml:"revealDelay"`
		HandoffTTL  string `yaml:"handoffTtl"`
	} `yaml:"quiz"`
	Scores struct {
		Path string `yaml:"path"`
	} `yaml:"scores"`
	Audio struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"audio"`
	Notifications struct {
		Enabled bool   `yaml:"enabled"`
		AppName string `yaml:"appName"`
	} `yaml:"notifications"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg.WithDefaults(), nil
}

// LoadOrDefault behaves like Load but falls back to defaults when the file does not exist.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Config{}.WithDefaults(), nil
	}
	return cfg, err
}

// WithDefaults fills zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "development"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "quiz"
	}
	if c.Quiz.AnswerSlots <= 0 {
		c.Quiz.AnswerSlots = 4
	}
	if c.Notifications.AppName == "" {
		c.Notifications.AppName = "Classical Music Quiz"
	}
	return c
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
