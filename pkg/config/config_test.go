package config

import (
	"testing"
	"time"

	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DB.Port != "5432" {
		t.Errorf("db port = %q, want 5432", cfg.DB.Port)
	}
	if cfg.DB.DBName != "schoolhub" {
		t.Errorf("db name = %q, want schoolhub", cfg.DB.DBName)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("server port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.JWT.ExpirationHours != 24 {
		t.Errorf("jwt expiration = %d, want 24", cfg.JWT.ExpirationHours)
	}
	if cfg.Metrics.Prefix != "schoolhub" {
		t.Errorf("metrics prefix = %q, want schoolhub", cfg.Metrics.Prefix)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_OPEN_CONNS", "25")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30m")
	t.Setenv("DB_LOG_LEVEL", "error")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SIGNING_KEY", "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DB.Host != "db.internal" {
		t.Errorf("db host = %q, want db.internal", cfg.DB.Host)
	}
	if cfg.DB.MaxOpenConns != 25 {
		t.Errorf("max open conns = %d, want 25", cfg.DB.MaxOpenConns)
	}
	if cfg.DB.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("conn max lifetime = %v, want 30m", cfg.DB.ConnMaxLifetime)
	}
	if cfg.DB.LogLevel != logger.Error {
		t.Errorf("db log level = %v, want error", cfg.DB.LogLevel)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("server port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.JWT.SigningKey != "env-key" {
		t.Errorf("jwt signing key = %q, want env-key", cfg.JWT.SigningKey)
	}
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("DB_MAX_IDLE_CONNS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.MaxIdleConns != 10 {
		t.Errorf("max idle conns = %d, want default 10", cfg.DB.MaxIdleConns)
	}
}

func TestGetDSN(t *testing.T) {
	db := DBConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "secret",
		DBName:   "schoolhub",
		SSLMode:  "disable",
	}
	want := "host=localhost port=5432 user=postgres password=secret dbname=schoolhub sslmode=disable"
	if got := db.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}
