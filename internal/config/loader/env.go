package loader

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultEnvPrefix is the prefix of Scribe's environment variables.
const DefaultEnvPrefix = "SCRIBE_"

// EnvLoader builds a layer from SCRIBE_ style environment variables.
type EnvLoader struct {
	prefix  string            // e.g. "SCRIBE_"
	mapping map[string]string // env var -> config path
}

// NewEnvLoader uses the default variable table for prefix.
// The prefix should include the trailing underscore (e.g., "SCRIBE_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
	}
}

// NewEnvLoaderWithMapping uses mapping (variable name to setting path)
// instead of the default table.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
	}
}

// defaultEnvMapping covers the settings whose names don't follow the
// SECTION_SETTING_NAME convention or that are shortened for convenience.
func defaultEnvMapping(prefix string) map[string]string {
	m := map[string]string{
		"LOG_LEVEL":               "log.level",
		"LOG_FORMAT":              "log.format",
		"HISTORY_DEPTH":           "history.depth",
		"HISTORY_NEW_GROUP_DELAY": "history.newGroupDelay",
		"TRACKING_ENABLED":        "tracking.enabled",
		"TRACKING_USER":           "tracking.user",
		"SCHEMA":                  "schema.name",
		"SCHEMA_PATH":             "schema.path",
		"EDITABLE":                "editor.editable",
		"STRICT":                  "editor.strictValidation",
		"STORE":                   "store.backend",
		"STORE_DIR":               "store.dir",
		"REDIS_ADDR":              "store.redis.addr",
		"REDIS_PASSWORD":          "store.redis.password",
		"REDIS_DB":                "store.redis.db",
		"REDIS_PREFIX":            "store.redis.prefix",
		"REDIS_TTL":               "store.redis.ttl",
		"METRICS":                 "metrics.enabled",
		"METRICS_NAMESPACE":       "metrics.namespace",
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[prefix+k] = v
	}
	return out
}

// Load reads mapped variables first, then derives paths for any other
// prefixed variable.
// Empty values count as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for env, path := range l.mapping {
		if val, ok := os.LookupEnv(env); ok {
			SetByPath(config, path, l.parseValue(val))
		}
	}

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, l.prefix) {
			continue
		}
		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if _, mapped := l.mapping[name]; mapped {
			continue
		}
		path := l.envToPath(name)
		if _, taken := GetByPath(config, path); taken {
			continue
		}
		SetByPath(config, path, l.parseValue(value))
	}

	return config, nil
}

// AddMapping maps envVar to a setting path.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// envToPath converts SCRIBE_EDITOR_STRICT_VALIDATION to
// editor.strictValidation.
func (l *EnvLoader) envToPath(env string) string {
	parts := strings.Split(strings.TrimPrefix(env, l.prefix), "_")
	section := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return section
	}

	name := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if part != "" {
			name += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return section + "." + name
}

// parseValue converts s to a bool, number, duration or JSON value when it
// looks like one, else returns it unchanged.
func (l *EnvLoader) parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if (strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")) && gjson.Valid(s) {
		return gjson.Parse(s).Value()
	}
	return s
}

// GetEnvOrDefault returns key's value, or defaultValue when unset or empty.
func GetEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}
