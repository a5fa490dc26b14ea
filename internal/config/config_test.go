package config

import (
	"os"
	"testing"
	"time"
)

func setEnvVars(vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func clearEnvVars(vars []string) {
	for _, k := range vars {
		os.Unsetenv(k)
	}
}

var allEnvVars = []string{
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "ENVIRONMENT",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"JWT_SECRET", "TOKEN_TTL", "BCRYPT_COST",
	"UPLOAD_DIR", "UPLOAD_MAX_SIZE_MB", "NOTIFICATION_CACHE_TTL_SEC",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Server.Host)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got %s", config.Server.Port)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Database.Port != "5432" {
		t.Errorf("Expected default DB port '5432', got %s", config.Database.Port)
	}

	if config.Database.Name != "crm" {
		t.Errorf("Expected default DB name 'crm', got %s", config.Database.Name)
	}

	if config.Auth.TokenTTL != time.Hour {
		t.Errorf("Expected default token TTL 1h, got %v", config.Auth.TokenTTL)
	}

	if config.Upload.Dir != "./uploads" {
		t.Errorf("Expected default upload dir './uploads', got %s", config.Upload.Dir)
	}

	if config.Upload.CacheTTLSec != 60 {
		t.Errorf("Expected default notification cache TTL 60s, got %d", config.Upload.CacheTTLSec)
	}

	if !config.RateLimit.Enabled {
		t.Error("Expected rate limiting enabled by default")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{
		"PORT":           "9090",
		"DB_NAME":        "crm_test",
		"TOKEN_TTL":      "30m",
		"BCRYPT_COST":    "12",
		"RATE_LIMIT_RPM": "500",
	})
	defer clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Server.Port != "9090" {
		t.Errorf("Expected port '9090', got %s", config.Server.Port)
	}

	if config.Database.Name != "crm_test" {
		t.Errorf("Expected DB name 'crm_test', got %s", config.Database.Name)
	}

	if config.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("Expected token TTL 30m, got %v", config.Auth.TokenTTL)
	}

	if config.Auth.BCryptCost != 12 {
		t.Errorf("Expected bcrypt cost 12, got %d", config.Auth.BCryptCost)
	}

	if config.RateLimit.RequestsPerMin != 500 {
		t.Errorf("Expected 500 rpm, got %d", config.RateLimit.RequestsPerMin)
	}
}

func TestLoadConfig_ProductionRequiresDBPassword(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "a-real-secret",
	})
	defer clearEnvVars(allEnvVars)

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error when production config has no DB password")
	}
}

func TestLoadConfig_ProductionRequiresJWTSecret(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{
		"ENVIRONMENT": "production",
		"DB_PASSWORD": "hunter2",
	})
	defer clearEnvVars(allEnvVars)

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error when production config keeps the default JWT secret")
	}
}

func TestDSNAndAddrHelpers(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{
		"DB_HOST":     "db.internal",
		"DB_PASSWORD": "hunter2",
		"REDIS_HOST":  "redis.internal",
		"REDIS_PORT":  "6380",
	})
	defer clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	dsn := config.GetDatabaseDSN()
	expected := "host=db.internal port=5432 user=postgres password=hunter2 dbname=crm sslmode=disable"
	if dsn != expected {
		t.Errorf("Unexpected DSN: %s", dsn)
	}

	if addr := config.GetRedisAddr(); addr != "redis.internal:6380" {
		t.Errorf("Unexpected redis addr: %s", addr)
	}

	if addr := config.GetServerAddr(); addr != "localhost:8080" {
		t.Errorf("Unexpected server addr: %s", addr)
	}

	if config.IsProduction() {
		t.Error("Expected development config")
	}
}
