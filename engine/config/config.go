// Package config loads buildcore's engine configuration: cache
// location and GC behavior, orchestrator parallelism, and the
// sandbox's default resource bounds.
//
// # Loading
//
// Load reads YAML from a caller-supplied path, falling back to an
// embedded default when the path does not exist — the same
// external-file-first, embedded-fallback shape the rest of the
// codebase uses for registry-style configuration.
package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gopkg.in/yaml.v3"

	"github.com/nexxo-build/nexxocore/engine/cache"
)

//go:embed default.yaml
var defaultConfigYAML []byte

var tracer = otel.Tracer("buildcore.config")

// Config is the root configuration for the engine packages.
type Config struct {
	Cache        CacheConfig        `yaml:"cache"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Sandbox      SandboxConfig      `yaml:"sandbox"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// CacheConfig configures engine/cache's persistent store and GC runner.
type CacheConfig struct {
	Dir               string  `yaml:"dir"`
	SyncWrites        bool    `yaml:"sync_writes"`
	NumVersionsToKeep int     `yaml:"num_versions_to_keep"`
	GCIntervalSeconds int     `yaml:"gc_interval_seconds"`
	GCDiscardRatio    float64 `yaml:"gc_discard_ratio"`
}

// OrchestratorConfig configures engine/orchestrator.
type OrchestratorConfig struct {
	// Parallelism is the dispatch width. 0 means "use
	// runtime.GOMAXPROCS(0)", matching orchestrator.New's own default.
	Parallelism int `yaml:"parallelism"`
}

// SandboxConfig configures engine/sandbox's default resource bounds.
type SandboxConfig struct {
	DefaultTimeoutMS int64  `yaml:"default_timeout_ms"`
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Dir     string `yaml:"dir"`
	JSON    bool   `yaml:"json"`
	Service string `yaml:"service"`
}

// ToCacheConfig converts the loaded cache section into the
// engine/cache.Config shape that cache.Open expects.
func (c CacheConfig) ToCacheConfig() cache.Config {
	return cache.Config{
		Path:              c.Dir,
		SyncWrites:        c.SyncWrites,
		NumVersionsToKeep: c.NumVersionsToKeep,
		GCInterval:        time.Duration(c.GCIntervalSeconds) * time.Second,
		GCDiscardRatio:    c.GCDiscardRatio,
	}
}

// Default returns the built-in configuration, equivalent to parsing
// the embedded default.yaml.
func Default() Config {
	cfg, err := parse(defaultConfigYAML)
	if err != nil {
		// The embedded default is a build-time asset; a parse failure
		// here means default.yaml itself is malformed, not a runtime
		// condition callers can recover from.
		panic(fmt.Sprintf("config: embedded default.yaml is invalid: %v", err))
	}
	return cfg
}

// Load reads YAML configuration from path. If path does not exist,
// Load falls back to the embedded default rather than failing, so a
// missing config file is never fatal for a library caller.
func Load(ctx context.Context, path string) (Config, error) {
	ctx, span := tracer.Start(ctx, "config.Load")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			span.SetAttributes(attribute.Bool("fallback_to_default", true))
			return Default(), nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return Config{}, err
	}
	return cfg, nil
}

func parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshaling YAML: %w", err)
	}
	return cfg, nil
}
