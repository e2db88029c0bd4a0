package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Ledger.Backend != BackendFile || cfg.Ledger.Key != "ecoquest_photo_hashes" || cfg.Ledger.Capacity != 1000 {
		t.Fatalf("unexpected ledger config %#v", cfg.Ledger)
	}
	if cfg.Verify.Policy != "permissive" || cfg.Verify.ExifDecoder != "auto" || cfg.Verify.Timeout != 30*time.Second {
		t.Fatalf("unexpected verify config %#v", cfg.Verify)
	}
	if cfg.App.DBPath != filepath.Join("./data", "ecoquest.db") {
		t.Fatalf("unexpected db path %q", cfg.App.DBPath)
	}
}

func TestLoad_Environment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ECOQUEST_DATA_DIR", dir)
	t.Setenv("ECOQUEST_LEDGER_BACKEND", "sqlite")
	t.Setenv("ECOQUEST_POLICY", "strict")
	t.Setenv("ECOQUEST_VERIFY_TIMEOUT", "5s")
	t.Setenv("ECOQUEST_TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ledger.Backend != BackendSQLite || cfg.Verify.Policy != "strict" || cfg.Verify.Timeout != 5*time.Second {
		t.Fatalf("environment not applied: %#v", cfg)
	}
	if cfg.App.DBPath != filepath.Join(dir, "ecoquest.db") {
		t.Fatalf("unexpected db path %q", cfg.App.DBPath)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("unexpected location %v, %v", loc, err)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "ECOQUEST_LEDGER_KEY=custom_hashes\nECOQUEST_LOG_LEVEL=debug\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// godotenv sets process variables; register them for cleanup first.
	t.Setenv("ECOQUEST_LEDGER_KEY", "")
	t.Setenv("ECOQUEST_LOG_LEVEL", "")
	os.Unsetenv("ECOQUEST_LEDGER_KEY")
	os.Unsetenv("ECOQUEST_LOG_LEVEL")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"), envFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ledger.Key != "custom_hashes" || cfg.App.LogLevel != "debug" {
		t.Fatalf("env file not applied: %#v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "backend", key: "ECOQUEST_LEDGER_BACKEND", val: "redis"},
		{name: "capacity", key: "ECOQUEST_LEDGER_CAPACITY", val: "0"},
		{name: "timezone", key: "ECOQUEST_TIMEZONE", val: "Mars/Olympus"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.val)
			}
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{App: AppConfig{
		DataDir: filepath.Join(root, "data"),
		DBPath:  filepath.Join(root, "db", "ecoquest.db"),
	}}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, dir := range []string{cfg.App.DataDir, filepath.Dir(cfg.App.DBPath)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
