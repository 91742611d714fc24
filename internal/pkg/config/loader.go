// Package config provides fail-open environment loaders and reusable
// validators for long-running components.
//
// A loader never returns an error: an invalid value falls back to the
// default and is reported through LoadResult.Warnings so the caller can log
// it and count it in ConfigMetrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one configuration value.
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// LoadEnv reads envKey, parses it and validates it. Unset or blank values
// yield def without a warning.
func LoadEnv[T any](envKey string, def T, parse func(string) (T, error), validate func(T) error) LoadResult[T] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return LoadResult[T]{Value: def}
	}

	fallback := func(reason error) LoadResult[T] {
		return LoadResult[T]{
			Value:           def,
			FallbackApplied: true,
			Warnings: []string{
				fmt.Sprintf("%s=%q rejected, using default %v: %v", envKey, raw, def, reason),
			},
		}
	}

	v, err := parse(raw)
	if err != nil {
		return fallback(err)
	}
	if validate != nil {
		if err := validate(v); err != nil {
			return fallback(err)
		}
	}
	return LoadResult[T]{Value: v}
}

// LoadEnvWithFallback loads a validated string.
func LoadEnvWithFallback(envKey, def string, validate func(string) error) LoadResult[string] {
	return LoadEnv(envKey, def, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvDuration loads a Go duration string such as "30m".
func LoadEnvDuration(envKey string, def time.Duration, validate func(time.Duration) error) LoadResult[time.Duration] {
	return LoadEnv(envKey, def, time.ParseDuration, validate)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, def int, validate func(int) error) LoadResult[int] {
	return LoadEnv(envKey, def, strconv.Atoi, validate)
}

// LoadEnvFloat loads a float64.
func LoadEnvFloat(envKey string, def float64, validate func(float64) error) LoadResult[float64] {
	return LoadEnv(envKey, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }, validate)
}

// LoadEnvBool accepts the forms understood by strconv.ParseBool.
func LoadEnvBool(envKey string, def bool) LoadResult[bool] {
	return LoadEnv(envKey, def, strconv.ParseBool, nil)
}
