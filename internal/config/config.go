package config

import "time"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the complete Scribe configuration.
type Config struct {
	History  HistoryConfig  `mapstructure:"history"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Schema   SchemaConfig   `mapstructure:"schema"`
	Editor   EditorConfig   `mapstructure:"editor"`
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// HistoryConfig bounds the undo history.
type HistoryConfig struct {
	// Depth is the number of undo entries kept.
	Depth int `mapstructure:"depth"`
	// NewGroupDelay is the window within which consecutive edits coalesce.
	NewGroupDelay time.Duration `mapstructure:"newGroupDelay"`
}

// TrackingConfig controls change attribution.
type TrackingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	User    string `mapstructure:"user"`
}

// SchemaConfig selects the document schema. Path, when set, names a YAML or
// TOML schema file registered under Name.
type SchemaConfig struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

// EditorConfig holds engine behaviour switches.
type EditorConfig struct {
	Editable         bool `mapstructure:"editable"`
	StrictValidation bool `mapstructure:"strictValidation"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects and configures snapshot persistence.
type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the redis store backend.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{
			Depth:         100,
			NewGroupDelay: 500 * time.Millisecond,
		},
		Tracking: TrackingConfig{
			User: "Anonymous",
		},
		Schema: SchemaConfig{
			Name: "basic",
		},
		Editor: EditorConfig{
			Editable: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatText,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Dir:     "scribe-data",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "scribe:",
			},
		},
		Metrics: MetricsConfig{
			Namespace: "scribe",
		},
	}
}

// Validate reports every out-of-range setting. The returned error joins one
// *ValidationError per problem.
func (c Config) Validate() error {
	var v validator

	if c.History.Depth <= 0 {
		v.add("history.depth", c.History.Depth, "must be positive")
	}
	if c.History.NewGroupDelay < 0 {
		v.add("history.newGroupDelay", c.History.NewGroupDelay, "must not be negative")
	}
	if c.Tracking.Enabled && c.Tracking.User == "" {
		v.add("tracking.user", c.Tracking.User, "required when tracking is enabled")
	}
	if c.Schema.Name == "" {
		v.add("schema.name", c.Schema.Name, "must not be empty")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		v.add("log.level", c.Log.Level, "must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		v.add("log.format", c.Log.Format, "must be text or json")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.Dir == "" {
			v.add("store.dir", c.Store.Dir, "required for the file backend")
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			v.add("store.redis.addr", c.Store.Redis.Addr, "required for the redis backend")
		}
		if c.Store.Redis.DB < 0 {
			v.add("store.redis.db", c.Store.Redis.DB, "must not be negative")
		}
		if c.Store.Redis.TTL < 0 {
			v.add("store.redis.ttl", c.Store.Redis.TTL, "must not be negative")
		}
	default:
		v.add("store.backend", c.Store.Backend, "must be memory, file or redis")
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		v.add("metrics.namespace", c.Metrics.Namespace, "required when metrics are enabled")
	}

	return v.err()
}
