// Package config provides small environment variable helpers that log a
// warning and return the default when a value cannot be parsed.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvString returns the trimmed value of key, or defaultValue when unset
// or blank.
func GetEnvString(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvFirst returns the first non-blank value among keys, in order.
//
//	to := GetEnvFirst("", "RECIPIENT_EMAIL", "EMAIL", "GMAIL_USER")
func GetEnvFirst(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return defaultValue
}

// GetEnvInt parses key as a base-10 integer.
func GetEnvInt(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		warnInvalid(key, raw, "integer", defaultValue, err)
		return defaultValue
	}
	return value
}

// GetEnvFloat parses key as a float64.
func GetEnvFloat(key string, defaultValue float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		warnInvalid(key, raw, "float", defaultValue, err)
		return defaultValue
	}
	return value
}

// GetEnvBool accepts the forms understood by strconv.ParseBool.
func GetEnvBool(key string, defaultValue bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		warnInvalid(key, raw, "boolean", defaultValue, err)
		return defaultValue
	}
	return value
}

// GetEnvDuration parses key with time.ParseDuration, e.g. "30s" or "10m".
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		warnInvalid(key, raw, "duration", defaultValue, err)
		return defaultValue
	}
	return value
}

// GetEnvStringList splits a comma-separated value, dropping blank entries.
func GetEnvStringList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var result []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

func warnInvalid(key, value, kind string, defaultValue any, err error) {
	slog.Warn("invalid "+kind+" value for environment variable, using default",
		slog.String("key", key),
		slog.String("value", value),
		slog.Any("default", defaultValue),
		slog.String("error", err.Error()))
}
