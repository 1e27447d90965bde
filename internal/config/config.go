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
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL    string `yaml:"url"`
		BankID string `yaml:"bank_id"`
	} `yaml:"postgres"`
	Quiz struct {
		DurationMinutes int    `yaml:"duration_minutes"`
		QuestionCount   int    `yaml:"question_count"`
		BankPath        string `yaml:"bank_path"`
		BankTTL         string `yaml:"bank_ttl"`
	} `yaml:"quiz"`
	Sheets struct {
		URL            string `yaml:"url"`
		Enabled        bool   `yaml:"enabled"`
		MaxRetries     int    `yaml:"max_retries"`
		RetryDelay     string `yaml:"retry_delay"`
		Timeout        string `yaml:"timeout"`
		VerifyResponse bool   `yaml:"verify_response"`
	} `yaml:"sheets"`
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
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
