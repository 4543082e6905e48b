package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if errWrite := os.WriteFile(path, []byte(content), 0o600); errWrite != nil {
		t.Fatalf("write %s: %v", path, errWrite)
	}
}

func TestLoadReadsYAMLAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
server:
  addr: ":9000"
  cors-origins: ["https://hoa.example"]
database:
  dsn: "postgres://hoa@localhost/hoa"
jwt:
  secret: "0123456789abcdef0123"
redis:
  addr: "localhost:6379"
`)

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Server.Addr != ":9000" || len(cfg.Server.CORSOrigins) != 1 {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Database.DSN != "postgres://hoa@localhost/hoa" {
		t.Fatalf("unexpected dsn %q", cfg.Database.DSN)
	}
	if got := cfg.JWTConfig().Expiry; got != 7*24*time.Hour {
		t.Fatalf("expected default expiry, got %v", got)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.MaxSizeMB != 50 {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "jwt:\n  secret: \"short\"\n")
	t.Setenv(EnvJWTSecret, "from-env-0123456789")
	t.Setenv(EnvDatabaseDSN, "file:env.db")

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.JWT.Secret != "from-env-0123456789" || cfg.Database.DSN != "file:env.db" {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
}

func TestDotEnvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, filepath.Join(dir, ".env"), EnvJWTSecret+"=dotenv-secret-0123456789\n")
	t.Setenv(EnvJWTSecret, "")
	os.Unsetenv(EnvJWTSecret)

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.JWT.Secret != "dotenv-secret-0123456789" {
		t.Fatalf("expected secret from .env, got %q", cfg.JWT.Secret)
	}
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvJWTSecret, "")
	if _, errLoad := Load(filepath.Join(dir, "config.yaml")); errLoad == nil {
		t.Fatalf("expected error without jwt secret")
	}
	dsn, errDSN := LoadDatabaseDSN(filepath.Join(dir, "config.yaml"))
	if errDSN != nil || dsn != "data/hoa.db" {
		t.Fatalf("expected default dsn, got %q %v", dsn, errDSN)
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	if got := ResolveConfigPath(""); filepath.Base(got) != DefaultConfigFile || !filepath.IsAbs(got) {
		t.Fatalf("unexpected default path %q", got)
	}
	t.Setenv(EnvConfigPath, "/etc/hoa/site.yaml")
	if got := ResolveConfigPath(""); got != "/etc/hoa/site.yaml" {
		t.Fatalf("expected env path, got %q", got)
	}
	if got := ResolveConfigPath("/tmp/x.yaml"); got != "/tmp/x.yaml" {
		t.Fatalf("expected explicit path, got %q", got)
	}
}
