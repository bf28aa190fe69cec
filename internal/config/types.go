package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	Pool        PoolConfig        `yaml:"pool"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Engineering EngineeringConfig `yaml:"engineering"`
}

// PoolConfig holds the connection pool's timeouts and sizing, handed to
// the pool at construction as an immutable snapshot (spec.md §9: mutable
// process-wide timeouts are an anti-pattern to drop, not reproduced here).
type PoolConfig struct {
	MaxPerHost         int           `yaml:"max_per_host"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	KeepAliveTimeout   time.Duration `yaml:"keep_alive_timeout"`
	StatsResetInterval time.Duration `yaml:"stats_reset_interval"`
	RetryNonIdempotent bool          `yaml:"retry_non_idempotent"`
	UserAgent          string        `yaml:"user_agent"`
	ExecutorWorkers    int           `yaml:"executor_workers"`
	ExecutorQueueSize  int           `yaml:"executor_queue_size"`
}

// ServerConfig holds the read-only stats/health HTTP server configuration
// (spec.md §6's "/stats", "/stats/{destination}" and "/health" surface).
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	Dir    string `yaml:"dir"`
}

// EngineeringConfig holds development/debugging configuration.
type EngineeringConfig struct {
	ShowNerdStats bool   `yaml:"show_nerdstats"`
	ProfileAddr   string `yaml:"profile_addr"`
}
