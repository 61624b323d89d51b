package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	WSAddr   string `yaml:"ws_addr"`

	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`

	MoveCacheTTLSec    int   `yaml:"move_cache_ttl"`
	SearchParallelRoot int   `yaml:"search_parallel_root"`
	RandomSeed         int64 `yaml:"random_seed"`

	MessagesDir  string `yaml:"messages_dir"`
	MaxBodyBytes int    `yaml:"max_body_bytes"`
}

// Load reads the optional YAML file named by WHALES_CONFIG, then applies
// environment overrides.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:        ":8080",
		WSAddr:          ":8081",
		MoveCacheTTLSec: 3600,
		MaxBodyBytes:    1 << 20,
	}

	if path := strings.TrimSpace(os.Getenv("WHALES_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		cfg.HTTPAddr = strings.TrimSpace(v)
	}
	// an explicitly empty WS_ADDR disables the websocket listener
	if v, ok := os.LookupEnv("WS_ADDR"); ok {
		cfg.WSAddr = strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("MSGCAT_DIR")); v != "" {
		cfg.MessagesDir = v
	}

	if v := strings.TrimSpace(os.Getenv("MOVE_CACHE_TTL")); v != "" { // seconds
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MOVE_CACHE_TTL must be a positive number of seconds: %q", v)
		}
		cfg.MoveCacheTTLSec = n
	}
	if v := strings.TrimSpace(os.Getenv("SEARCH_PARALLEL_ROOT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("SEARCH_PARALLEL_ROOT must be a non-negative integer: %q", v)
		}
		cfg.SearchParallelRoot = n
	}
	if v := strings.TrimSpace(os.Getenv("RANDOM_SEED")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("RANDOM_SEED must be an integer: %q", v)
		}
		cfg.RandomSeed = n
	}
	if v := strings.TrimSpace(os.Getenv("MAX_BODY_BYTES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_BODY_BYTES must be a positive integer: %q", v)
		}
		cfg.MaxBodyBytes = n
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("HTTP_ADDR is required")
	}
	if cfg.MoveCacheTTLSec <= 0 {
		return nil, errors.New("move_cache_ttl must be positive")
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, errors.New("max_body_bytes must be positive")
	}
	if cfg.SearchParallelRoot < 0 {
		return nil, errors.New("search_parallel_root must not be negative")
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
