package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xraph/cronlock"
)

// Config is the daemon configuration.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Locks     LocksConfig     `mapstructure:"locks"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	Jobs      []JobConfig     `mapstructure:"jobs"`
}

// StoreConfig selects the backend holding the run ledger, and the lock
// unless Locks overrides it.
type StoreConfig struct {
	// Driver is one of memory, postgres, bun-postgres, sqlite, redis, mongo.
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Database string `mapstructure:"database"`
}

// LocksConfig optionally moves lock arbitration to Kubernetes Leases.
type LocksConfig struct {
	// Driver is empty (use the store) or k8s.
	Driver     string `mapstructure:"driver"`
	Namespace  string `mapstructure:"namespace"`
	Kubeconfig string `mapstructure:"kubeconfig"`
}

// SchedulerConfig mirrors cronlock.Config.
type SchedulerConfig struct {
	Resource          string        `mapstructure:"resource"`
	LeaseDuration     time.Duration `mapstructure:"lease_duration"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	StandbyInterval   time.Duration `mapstructure:"standby_interval"`
	ReleaseOnStop     bool          `mapstructure:"release_on_stop"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPConfig configures the admin API. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`

	// Audit writes every run and ownership change as a warn-level
	// "audit" log record.
	Audit bool `mapstructure:"audit"`
}

// JobConfig declares a job that runs an external command.
type JobConfig struct {
	Alias       string   `mapstructure:"alias"`
	Description string   `mapstructure:"description"`
	Interval    string   `mapstructure:"interval"`
	Timeout     string   `mapstructure:"timeout"`
	Command     []string `mapstructure:"command"`
}

func setDefaults(v *viper.Viper) {
	d := cronlock.DefaultConfig()
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.database", "cronlock")
	v.SetDefault("locks.driver", "")
	v.SetDefault("locks.namespace", "default")
	v.SetDefault("locks.kubeconfig", "")
	v.SetDefault("scheduler.resource", d.Resource)
	v.SetDefault("scheduler.lease_duration", d.LeaseDuration)
	v.SetDefault("scheduler.heartbeat_interval", d.HeartbeatInterval)
	v.SetDefault("scheduler.tick_interval", d.TickInterval)
	v.SetDefault("scheduler.standby_interval", d.StandbyInterval)
	v.SetDefault("scheduler.release_on_stop", d.ReleaseOnStop)
	v.SetDefault("scheduler.shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.audit", false)
}

// loadConfig reads path (optional) and CRONLOCK_* environment variables.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRONLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Cronlock converts the scheduler section and validates it.
func (c SchedulerConfig) Cronlock() (cronlock.Config, error) {
	cfg := cronlock.Config{
		Resource:          c.Resource,
		LeaseDuration:     c.LeaseDuration,
		HeartbeatInterval: c.HeartbeatInterval,
		TickInterval:      c.TickInterval,
		StandbyInterval:   c.StandbyInterval,
		ReleaseOnStop:     c.ReleaseOnStop,
		ShutdownTimeout:   c.ShutdownTimeout,
	}
	return cfg, cfg.Validate()
}

// newLogger builds the process logger from c.
func (c LogConfig) newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q: want text or json", c.Format)
	}
}
