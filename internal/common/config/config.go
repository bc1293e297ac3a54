package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string   `toml:"port"`
	Environment  string   `toml:"env"`
	ReadTimeout  int      `toml:"read_timeout"`
	WriteTimeout int      `toml:"write_timeout"`
	LogLevel     string   `toml:"log_level"`
	BodyLimitMB  int      `toml:"body_limit_mb"`
	FitPadding   float64  `toml:"fit_padding"`
	MaxPixels    int      `toml:"max_pixels"`
	CORSOrigins  []string `toml:"cors_origins"`
	Export       Export   `toml:"export"`
}

type Export struct {
	Dir            string `toml:"dir"`
	DBPath         string `toml:"db_path"`
	IncludeHandles bool   `toml:"include_handles"`
}

func Default() *Config {
	return &Config{
		Port:         "3000",
		Environment:  "development",
		ReadTimeout:  10,
		WriteTimeout: 10,
		LogLevel:     "info",
		BodyLimitMB:  32,
		FitPadding:   40,
		MaxPixels:    25_000_000,
		Export: Export{
			Dir:    "data/exports",
			DBPath: "data/db/exports.db",
		},
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// PLANNER_CONFIG if set, then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("PLANNER_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.ReadTimeout = getEnvAsInt("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.BodyLimitMB = getEnvAsInt("BODY_LIMIT_MB", cfg.BodyLimitMB)
	cfg.FitPadding = getEnvAsFloat("FIT_PADDING", cfg.FitPadding)
	cfg.MaxPixels = getEnvAsInt("MAX_PIXELS", cfg.MaxPixels)
	cfg.CORSOrigins = getEnvAsList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.Export.Dir = getEnv("EXPORT_DIR", cfg.Export.Dir)
	cfg.Export.DBPath = getEnv("EXPORT_DB_PATH", cfg.Export.DBPath)
	cfg.Export.IncludeHandles = getEnvAsBool("EXPORT_INCLUDE_HANDLES", cfg.Export.IncludeHandles)

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown keys %v", path, undecoded)
	}
	return nil
}

func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvAsList splits a comma-separated value, dropping empty items.
func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
