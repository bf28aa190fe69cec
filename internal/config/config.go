package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	DefaultStatsPort = 19841
	DefaultStatsHost = "localhost"

	DefaultFileWriteDelay = 150 * time.Millisecond // Small delay to ensure file write is complete
)

var (
	lastReload  time.Time
	reloadMutex sync.Mutex
)

// DefaultConfig returns a configuration with the timeouts named in
// spec.md §4.2: CONNECT=30s, WRITE=30s, READ=60s, KEEP=60s,
// STATS_RESET=30s, max_per_host=2.
func DefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			MaxPerHost:         2,
			ConnectTimeout:     30 * time.Second,
			WriteTimeout:       30 * time.Second,
			ReadTimeout:        60 * time.Second,
			KeepAliveTimeout:   60 * time.Second,
			StatsResetInterval: 30 * time.Second,
			RetryNonIdempotent: false,
			UserAgent:          "conduit/1.0",
			ExecutorWorkers:    8,
			ExecutorQueueSize:  1024,
		},
		Server: ServerConfig{
			Host:            DefaultStatsHost,
			Port:            DefaultStatsPort,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Engineering: EngineeringConfig{
			ShowNerdStats: true,
		},
	}
}

// Load loads configuration from file and environment variables, applying
// env overrides under the CONDUIT_ prefix.
func Load(onConfigChange func()) (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("CONDUIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if configFile := os.Getenv("CONDUIT_CONFIG_FILE"); configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	viper.WatchConfig()

	if onConfigChange != nil {
		viper.OnConfigChange(func(e fsnotify.Event) {
			reloadMutex.Lock()
			defer reloadMutex.Unlock()

			now := time.Now()
			if now.Sub(lastReload) < 500*time.Millisecond {
				return // ignore rapid-fire reloads
			}
			lastReload = now

			// on some platforms this fires before the write is flushed
			time.Sleep(DefaultFileWriteDelay)
			onConfigChange()
		})
	}
	return cfg, nil
}
