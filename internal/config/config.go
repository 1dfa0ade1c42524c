// Package config loads runtime settings from defaults, an optional TOML
// file, environment variables and command-line flags.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

// Sink kinds.
const (
	SinkOpenSearch = "opensearch"
	SinkSQLite     = "sqlite"
)

// MaxPageSize bounds scan_page_size. A scan page never returns more
// than 1 MB, so larger limits buy nothing.
const MaxPageSize = 10000

// Config is the effective runtime configuration.
type Config struct {
	// Target
	Index   string `mapstructure:"es_index" toml:"es_index"`
	IDList  string `mapstructure:"es_id" toml:"es_id"`
	Host    string `mapstructure:"es_host" toml:"es_host"`
	DocType string `mapstructure:"es_type" toml:"es_type"`
	Refresh string `mapstructure:"es_refresh" toml:"es_refresh"`
	Sign    bool   `mapstructure:"es_sign" toml:"es_sign"`
	Region  string `mapstructure:"aws_region" toml:"aws_region"`

	// Sink selection and throttling
	Sink          string  `mapstructure:"sink" toml:"sink"`
	SQLitePath    string  `mapstructure:"sqlite_path" toml:"sqlite_path"`
	SinkRateLimit float64 `mapstructure:"sink_rate_limit" toml:"sink_rate_limit"`
	SinkRateBurst int     `mapstructure:"sink_rate_burst" toml:"sink_rate_burst"`

	// Source table
	Table       string `mapstructure:"ddb_table" toml:"ddb_table"`
	DDBEndpoint string `mapstructure:"ddb_endpoint" toml:"ddb_endpoint"`
	KeySchema   string `mapstructure:"key_schema" toml:"key_schema"`

	// Backfill
	PageSize       int `mapstructure:"scan_page_size" toml:"scan_page_size"`
	Workers        int `mapstructure:"backfill_workers" toml:"backfill_workers"`
	FlushThreshold int `mapstructure:"flush_threshold" toml:"flush_threshold"`

	// Ambient
	StatsDAddr string `mapstructure:"statsd_addr" toml:"statsd_addr"`
	LogLevel   string `mapstructure:"log_level" toml:"log_level"`
	LogFormat  string `mapstructure:"log_format" toml:"log_format"`
	HTTPAddr   string `mapstructure:"http_addr" toml:"http_addr"`
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string][]string{
	"es_index":         {"ES_INDEX"},
	"es_id":            {"ES_ID"},
	"es_host":          {"ES_HOST"},
	"es_type":          {"ES_TYPE"},
	"es_refresh":       {"ES_REFRESH"},
	"es_sign":          {"ES_SIGN"},
	"aws_region":       {"AWS_REGION", "AWS_DEFAULT_REGION"},
	"sink":             {"SINK"},
	"sqlite_path":      {"SQLITE_PATH"},
	"sink_rate_limit":  {"SINK_RATE_LIMIT"},
	"sink_rate_burst":  {"SINK_RATE_BURST"},
	"ddb_table":        {"DDB_TABLE"},
	"ddb_endpoint":     {"DDB_ENDPOINT"},
	"key_schema":       {"KEY_SCHEMA"},
	"scan_page_size":   {"SCAN_PAGE_SIZE"},
	"backfill_workers": {"BACKFILL_WORKERS"},
	"flush_threshold":  {"FLUSH_THRESHOLD"},
	"statsd_addr":      {"STATSD_ADDR"},
	"log_level":        {"LOG_LEVEL"},
	"log_format":       {"LOG_FORMAT"},
	"http_addr":        {"HTTP_ADDR"},
}

// IsKey reports whether key is a known configuration key.
func IsKey(key string) bool {
	_, ok := envBindings[key]
	return ok
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("es_sign", true)
	v.SetDefault("sink", SinkOpenSearch)
	v.SetDefault("sink_rate_burst", 1)
	v.SetDefault("scan_page_size", 200)
	v.SetDefault("backfill_workers", 5)
	v.SetDefault("flush_threshold", 100)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("http_addr", ":8080")
}

// BindEnv binds every config key to its environment variables.
func BindEnv(v *viper.Viper) error {
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the configuration. When path is set the TOML file is read
// first; environment variables and bound flags take precedence over it.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	return Decode(v)
}

// Decode unmarshals the current state of v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Index) == "" {
		problems = append(problems, "es_index is required")
	}
	switch c.Sink {
	case SinkOpenSearch:
		if strings.TrimSpace(c.Host) == "" {
			problems = append(problems, "es_host is required for the opensearch sink")
		}
	case SinkSQLite:
	default:
		problems = append(problems, fmt.Sprintf("unknown sink %q", c.Sink))
	}
	if c.PageSize <= 0 {
		problems = append(problems, "scan_page_size must be positive")
	} else if c.PageSize > MaxPageSize {
		problems = append(problems, fmt.Sprintf("scan_page_size must be at most %d", MaxPageSize))
	}
	if c.Workers <= 0 {
		problems = append(problems, "backfill_workers must be positive")
	}
	if c.FlushThreshold <= 0 {
		problems = append(problems, "flush_threshold must be positive")
	}
	if c.SinkRateLimit < 0 {
		problems = append(problems, "sink_rate_limit must not be negative")
	}
	if _, err := ParseList(c.IDList); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := ParseList(c.KeySchema); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// ValidateBackfill checks Validate plus the source table settings.
func (c *Config) ValidateBackfill() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Table) == "" {
		return fmt.Errorf("%w: ddb_table is required for backfill", domain.ErrInvalidInput)
	}
	return nil
}

// IDFields returns the explicit document id attributes, in order.
func (c *Config) IDFields() []string {
	fields, _ := ParseList(c.IDList)
	return fields
}

// KeyOrder returns the configured key attribute order.
func (c *Config) KeyOrder() []string {
	keys, _ := ParseList(c.KeySchema)
	return keys
}

// SigningRegion returns the region used to sign sink requests, or empty
// when signing is off.
func (c *Config) SigningRegion() string {
	if !c.Sign {
		return ""
	}
	return c.Region
}

// ParseList parses an ordered list of names. Accepts a comma-separated
// string ("pk, sk") or a JSON array (["pk", "sk"]).
func ParseList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var parts []string
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &parts); err != nil {
			return nil, fmt.Errorf("invalid list %q: %w", s, err)
		}
	} else {
		parts = strings.Split(s, ",")
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// TOML renders the configuration as a TOML document.
func (c *Config) TOML() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}
