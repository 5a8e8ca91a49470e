package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all pipeline settings.
const envPrefix = "MOLPIPE"

// configKeys lists every known configuration key.  Viper's Unmarshal only
// consults keys it has seen, so each one is bound explicitly; without this,
// settings provided solely through the environment would never reach the
// decoded struct.
var configKeys = []string{
	"input.dir", "input.pattern",
	"chem.max_ring_size", "chem.np_model_path",
	"dataset.name", "dataset.output_dir", "dataset.sink",
	"registry.endpoint", "registry.access_key", "registry.secret_key",
	"registry.bucket", "registry.use_ssl", "registry.timeout",
	"database.host", "database.port", "database.user", "database.password",
	"database.db_name", "database.ssl_mode", "database.max_conns",
	"database.min_conns", "database.conn_max_lifetime", "database.migration_path",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
	"redis.default_ttl", "redis.key_prefix",
	"kafka.brokers", "kafka.topic_prefix", "kafka.batch_size",
	"kafka.batch_timeout", "kafka.write_timeout", "kafka.max_retries",
	"worker.concurrency",
	"metrics.listen_addr", "metrics.namespace",
	"training.binary", "training.work_dir",
	"log.level", "log.format", "log.output_paths", "log.error_output_paths",
}

// newViper builds a pre-configured Viper instance with the pipeline's
// standard settings: YAML file type, MOLPIPE_ env prefix, automatic env
// binding, and a key replacer mapping "." to "_" so that nested keys like
// "registry.endpoint" resolve to "MOLPIPE_REGISTRY_ENDPOINT".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges MOLPIPE_* environment
// variable overrides, and applies defaults for unset fields.  Validation is
// left to the caller: commands validate once their flag overrides have been
// applied on top.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalWithDefaults(v)
}

// LoadFromEnv builds a Config entirely from MOLPIPE_* environment variables
// with no config file, the preferred strategy for containerised runs.  As
// with Load, validation is the caller's step.
func LoadFromEnv() (*Config, error) {
	return unmarshalWithDefaults(newViper())
}

func unmarshalWithDefaults(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  Intended for
// hot-reloading non-critical settings such as log level during long batch
// runs.  Non-blocking; viper manages the watching goroutine.  A change that
// fails to parse or validate is dropped without invoking onChange.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; callers should have called Load first, so errors here
	// are ignored.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalWithDefaults(v)
		if err != nil {
			return
		}
		if err := cfg.Validate(); err != nil {
			return
		}
		onChange(cfg)
	})
}
