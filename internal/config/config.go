package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PVM_REDIS_ADDR.
const EnvPrefix = "PVM_"

// Config holds the settings of the pvm binary.
type Config struct {
	ProcessesDir string        `mapstructure:"processes_dir" yaml:"processes_dir"`
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string        `mapstructure:"log_format" yaml:"log_format"`
	RedisAddr    string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPass    string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB      int           `mapstructure:"redis_db" yaml:"redis_db"`
	RedisPrefix  string        `mapstructure:"redis_prefix" yaml:"redis_prefix"`
	InstanceTTL  time.Duration `mapstructure:"instance_ttl" yaml:"instance_ttl"`
	LockTTL      time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
	Workers      int           `mapstructure:"workers" yaml:"workers"`
	JobBuffer    int           `mapstructure:"job_buffer" yaml:"job_buffer"`

	// StoreDir keeps instances as JSON files when Redis is not configured.
	StoreDir string `mapstructure:"store_dir" yaml:"store_dir"`
	// EncryptionKey is a hex encoded AES-256 key for stored snapshots.
	EncryptionKey string   `mapstructure:"encryption_key" yaml:"encryption_key"`
	MaskPatterns  []string `mapstructure:"mask_patterns" yaml:"mask_patterns"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ProcessesDir: ".",
		Addr:         ":8080",
		LogLevel:     "info",
		LogFormat:    "text",
		LockTTL:      30 * time.Second,
		Workers:      4,
		JobBuffer:    64,
	}
}

// Load applies, in order, the defaults, the YAML file at path (skipped when
// path is empty) and the PVM_* variables of environ.
func Load(path string, environ []string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if err := decode(raw, &cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := decode(fromEnv(environ), &cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the binary cannot run with.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be \"text\" or \"json\", got %q", c.LogFormat)
	}
	if c.Workers < 0 || c.JobBuffer < 0 {
		return fmt.Errorf("workers and job_buffer must not be negative")
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("lock_ttl must be positive")
	}
	if _, err := c.Key(); err != nil {
		return err
	}
	return nil
}

// Key decodes EncryptionKey. It returns nil when encryption is off.
func (c *Config) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption_key must be hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption_key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

func fromEnv(environ []string) map[string]any {
	out := make(map[string]any)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		out[strings.ToLower(strings.TrimPrefix(key, EnvPrefix))] = value
	}
	return out
}

func decode(in map[string]any, out *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
