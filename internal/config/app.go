package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	HTTPAddr  string `yaml:"http_addr"`
	GRPCAddr  string `yaml:"grpc_addr"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text | json

	// Период проверки БД для gRPC health, секунд.
	HealthProbeIntervalSec int `yaml:"health_probe_interval_sec"`

	DB DBConfig `yaml:"db"`
}

func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		HTTPAddr:               ":8080",
		GRPCAddr:               ":50051",
		LogLevel:               "info",
		LogFormat:              "text",
		HealthProbeIntervalSec: 15,
		DB:                     defaultDBConfig(),
	}
}

// Load собирает конфиг: дефолты, затем YAML-файл (если path не пуст),
// затем .env и переменные окружения поверх.
func Load(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// .env может отсутствовать
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.GRPCAddr = getEnv("GRPC_ADDR", c.GRPCAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.HealthProbeIntervalSec = getEnvInt("HEALTH_PROBE_INTERVAL_SEC", c.HealthProbeIntervalSec)
	c.DB.applyEnv()
}

func (c *AppConfig) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("invalid config: http_addr must not be empty")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid config: unknown log format %q", c.LogFormat)
	}
	return c.DB.Validate()
}
