// Package config loads friendgraph settings from defaults, an optional YAML or
// TOML file and the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/badgerstore"
)

// Store backends.
const (
	BackendNeo4j  = "neo4j"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config is the complete runtime configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Store   StoreConfig   `yaml:"store" toml:"store"`
	Neo4j   Neo4jConfig   `yaml:"neo4j" toml:"neo4j"`
	Badger  BadgerConfig  `yaml:"badger" toml:"badger"`
	Breaker BreakerConfig `yaml:"breaker" toml:"breaker"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Tracing TracingConfig `yaml:"tracing" toml:"tracing"`
}

type ServerConfig struct {
	Addr            string   `yaml:"addr" toml:"addr"`
	CORSOrigins     []string `yaml:"cors_origins" toml:"cors_origins"`
	ReadTimeout     Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout" toml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	// RequestTimeout bounds every handler's context. Zero disables it.
	RequestTimeout Duration `yaml:"request_timeout" toml:"request_timeout"`
}

type StoreConfig struct {
	// Backend is one of neo4j, badger or memory.
	Backend string `yaml:"backend" toml:"backend"`
}

type Neo4jConfig struct {
	URI                string   `yaml:"uri" toml:"uri"`
	Username           string   `yaml:"username" toml:"username"`
	Password           string   `yaml:"password" toml:"password"`
	Database           string   `yaml:"database" toml:"database"`
	MaxPoolSize        int      `yaml:"max_pool_size" toml:"max_pool_size"`
	AcquisitionTimeout Duration `yaml:"acquisition_timeout" toml:"acquisition_timeout"`
}

type BadgerConfig struct {
	Path           string   `yaml:"path" toml:"path"`
	InMemory       bool     `yaml:"in_memory" toml:"in_memory"`
	SyncWrites     bool     `yaml:"sync_writes" toml:"sync_writes"`
	GCInterval     Duration `yaml:"gc_interval" toml:"gc_interval"`
	GCDiscardRatio float64  `yaml:"gc_discard_ratio" toml:"gc_discard_ratio"`
}

// BreakerConfig guards the Neo4j runner. It has no effect on other backends.
type BreakerConfig struct {
	Enabled          bool     `yaml:"enabled" toml:"enabled"`
	MaxRequests      uint32   `yaml:"max_requests" toml:"max_requests"`
	Interval         Duration `yaml:"interval" toml:"interval"`
	Timeout          Duration `yaml:"timeout" toml:"timeout"`
	FailureThreshold float64  `yaml:"failure_threshold" toml:"failure_threshold"`
	MinRequests      uint32   `yaml:"min_requests" toml:"min_requests"`
}

type LogConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Namespace string `yaml:"namespace" toml:"namespace"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	ServiceName string `yaml:"service_name" toml:"service_name"`
}

// Duration is a time.Duration written as text ("30s") in config files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// StoreConfig converts the section into badgerstore settings. In-memory mode
// ignores the path and durability fields.
func (b BadgerConfig) StoreConfig() badgerstore.Config {
	if b.InMemory {
		return badgerstore.InMemoryConfig()
	}
	sc := badgerstore.DefaultConfig(b.Path)
	sc.SyncWrites = b.SyncWrites
	sc.GCInterval = b.GCInterval.Duration
	sc.GCDiscardRatio = b.GCDiscardRatio
	return sc
}

// RunnerConfig converts the section into settings for a breaker called name.
func (b BreakerConfig) RunnerConfig(name string) friendgraph.BreakerConfig {
	rc := friendgraph.DefaultBreakerConfig(name)
	rc.MaxRequests = b.MaxRequests
	rc.Interval = b.Interval.Duration
	rc.Timeout = b.Timeout.Duration
	rc.FailureThreshold = b.FailureThreshold
	rc.MinRequests = b.MinRequests
	return rc
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	badgerDefaults := badgerstore.DefaultConfig("data/friendgraph")
	breakerDefaults := friendgraph.DefaultBreakerConfig("neo4j")

	return &Config{
		Server: ServerConfig{
			Addr:            ":4000",
			CORSOrigins:     []string{"*"},
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{15 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
			RequestTimeout:  Duration{10 * time.Second},
		},
		Store: StoreConfig{Backend: BackendNeo4j},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
		},
		Badger: BadgerConfig{
			Path:           badgerDefaults.Path,
			SyncWrites:     badgerDefaults.SyncWrites,
			GCInterval:     Duration{badgerDefaults.GCInterval},
			GCDiscardRatio: badgerDefaults.GCDiscardRatio,
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			MaxRequests:      breakerDefaults.MaxRequests,
			Interval:         Duration{breakerDefaults.Interval},
			Timeout:          Duration{breakerDefaults.Timeout},
			FailureThreshold: breakerDefaults.FailureThreshold,
			MinRequests:      breakerDefaults.MinRequests,
		},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: true, Namespace: "friendgraph"},
		Tracing: TracingConfig{ServiceName: "friendgraph"},
	}
}

// Load builds a Config from defaults, then the file at path when path is not
// empty, then environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendNeo4j:
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j.uri is required for the neo4j backend")
		}
	case BackendBadger:
		if !c.Badger.InMemory && c.Badger.Path == "" {
			return fmt.Errorf("badger.path is required unless badger.in_memory is set")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q (want neo4j, badger or memory)", c.Store.Backend)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Breaker.FailureThreshold <= 0 || c.Breaker.FailureThreshold > 1 {
		return fmt.Errorf("breaker.failure_threshold must be in (0, 1], got %v", c.Breaker.FailureThreshold)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = envOrDefault("FRIENDGRAPH_ADDR", c.Server.Addr)
	if origins := os.Getenv("FRIENDGRAPH_CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}
	c.Store.Backend = envOrDefault("FRIENDGRAPH_STORE", c.Store.Backend)
	c.Badger.Path = envOrDefault("FRIENDGRAPH_BADGER_PATH", c.Badger.Path)
	c.Log.Level = envOrDefault("FRIENDGRAPH_LOG_LEVEL", c.Log.Level)
	c.Metrics.Namespace = envOrDefault("FRIENDGRAPH_METRICS_NAMESPACE", c.Metrics.Namespace)

	c.Neo4j.URI = envOrDefault("NEO4J_URI", c.Neo4j.URI)
	c.Neo4j.Username = envOrDefault("NEO4J_USERNAME", c.Neo4j.Username)
	c.Neo4j.Password = envOrDefault("NEO4J_PASSWORD", c.Neo4j.Password)
	c.Neo4j.Database = envOrDefault("NEO4J_DATABASE", c.Neo4j.Database)

	bools := []struct {
		key    string
		target *bool
	}{
		{"FRIENDGRAPH_LOG_DEVELOPMENT", &c.Log.Development},
		{"FRIENDGRAPH_METRICS_ENABLED", &c.Metrics.Enabled},
		{"FRIENDGRAPH_TRACING_ENABLED", &c.Tracing.Enabled},
		{"FRIENDGRAPH_BREAKER_ENABLED", &c.Breaker.Enabled},
		{"FRIENDGRAPH_BADGER_IN_MEMORY", &c.Badger.InMemory},
	}
	for _, b := range bools {
		if err := envBool(b.key, b.target); err != nil {
			return err
		}
	}

	if v := os.Getenv("FRIENDGRAPH_REQUEST_TIMEOUT"); v != "" {
		if err := c.Server.RequestTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("FRIENDGRAPH_REQUEST_TIMEOUT: %w", err)
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, target *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = parsed
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
