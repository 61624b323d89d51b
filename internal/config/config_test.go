package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"WHALES_CONFIG", "HTTP_ADDR", "WS_ADDR", "REDIS_URL", "DATABASE_URL", "MSGCAT_DIR", "MOVE_CACHE_TTL", "SEARCH_PARALLEL_ROOT", "RANDOM_SEED", "MAX_BODY_BYTES"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.WSAddr != ":8081" || cfg.MoveCacheTTLSec != 3600 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RedisURL != "" || cfg.DatabaseURL != "" || cfg.SearchParallelRoot != 0 {
		t.Fatalf("optional backends should be off by default: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "whales.yaml")
	body := strings.Join([]string{
		"http_addr: \":9000\"",
		"redis_url: redis://cache:6379/2",
		"move_cache_ttl: 60",
		"search_parallel_root: 4",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("WHALES_CONFIG", path)
	t.Setenv("SEARCH_PARALLEL_ROOT", "2")
	t.Setenv("WS_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" || cfg.RedisURL != "redis://cache:6379/2" || cfg.MoveCacheTTLSec != 60 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.SearchParallelRoot != 2 {
		t.Fatalf("env should override file, got %d", cfg.SearchParallelRoot)
	}
	if cfg.WSAddr != "" {
		t.Fatalf("empty WS_ADDR should disable websocket, got %q", cfg.WSAddr)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct{ key, value string }{
		{"MOVE_CACHE_TTL", "-5"},
		{"SEARCH_PARALLEL_ROOT", "many"},
		{"RANDOM_SEED", "x"},
		{"MAX_BODY_BYTES", "lots"},
		{"MAX_BODY_BYTES", "0"},
	}
	for _, tc := range cases {
		clearEnv(t)
		t.Setenv(tc.key, tc.value)
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for %s=%q", tc.key, tc.value)
		}
	}
}

func TestLoadRejectsUnknownFileKeys(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "whales.yaml")
	if err := os.WriteFile(path, []byte("stockfish_path: /usr/bin/stockfish\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("WHALES_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
