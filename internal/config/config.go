// Package config defines all configuration structures for the molpipe
// dataset pipeline.  No I/O or parsing logic lives here, only plain data
// types and validation.  Loading lives in loader.go, defaults in
// defaults.go.
package config

import (
	"fmt"
	"time"

	"github.com/chemforge/molpipe/internal/infrastructure/logging"
)

// InputConfig describes where structure files are read from.
type InputConfig struct {
	// Dir is the directory holding one fixed-layout text file per molecule.
	Dir string `mapstructure:"dir"`
	// Pattern is the glob matched against file names inside Dir.
	Pattern string `mapstructure:"pattern"`
}

// ChemConfig holds chemistry-toolkit tunables.
type ChemConfig struct {
	// MaxRingSize is the upper bound of the bucketed ring-size histogram
	// (R3..R<MaxRingSize>).  Larger rings are still counted under their own
	// R<n> key.
	MaxRingSize int `mapstructure:"max_ring_size"`
	// NPModelPath points at the natural-product fragment-score model.
	// When empty the np_score descriptor is omitted from the output.
	NPModelPath string `mapstructure:"np_model_path"`
}

// DatasetConfig holds aggregation and export parameters.
type DatasetConfig struct {
	// Name is the dataset identifier used for output files and registry keys.
	Name string `mapstructure:"name"`
	// OutputDir receives the Parquet file and the vocabulary JSON.
	OutputDir string `mapstructure:"output_dir"`
	// Sink selects the record sink: "parquet" (default) or "postgres".
	Sink string `mapstructure:"sink"`
}

// RegistryConfig holds the S3-compatible dataset-registry parameters.
type RegistryConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	AccessKey string        `mapstructure:"access_key"`
	SecretKey string        `mapstructure:"secret_key"`
	Bucket    string        `mapstructure:"bucket"`
	UseSSL    bool          `mapstructure:"use_ssl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the optional
// relational record sink.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds the descriptor-cache connection parameters.  An empty
// Addr disables the cache entirely.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the pipeline-event producer parameters.  An empty
// Brokers list disables event publishing.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	TopicPrefix  string        `mapstructure:"topic_prefix"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// WorkerConfig holds batch execution parameters.
type WorkerConfig struct {
	// Concurrency is the number of files parsed and augmented in parallel.
	// Files are independent and order does not matter; 1 gives the fully
	// sequential behaviour.
	Concurrency int `mapstructure:"concurrency"`
}

// MetricsConfig holds Prometheus exposure parameters.  An empty ListenAddr
// disables the HTTP listener; counters are still collected in-process.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	Namespace  string `mapstructure:"namespace"`
}

// TrainingConfig holds defaults for the external training launcher.
type TrainingConfig struct {
	// Binary is the training entry point executed as a subprocess.
	Binary string `mapstructure:"binary"`
	// WorkDir is the working directory for the subprocess.
	WorkDir string `mapstructure:"work_dir"`
}

// Config is the root configuration structure for the pipeline.
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Chem     ChemConfig     `mapstructure:"chem"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Registry RegistryConfig `mapstructure:"registry"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Training TrainingConfig `mapstructure:"training"`
	Log      logging.Config `mapstructure:"log"`
}

// Validate performs semantic validation of a fully-populated Config and
// returns the first error encountered.  Callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Input.Dir == "" {
		return fmt.Errorf("config: input.dir is required")
	}
	if c.Input.Pattern == "" {
		return fmt.Errorf("config: input.pattern is required")
	}

	if c.Chem.MaxRingSize < 3 {
		return fmt.Errorf("config: chem.max_ring_size must be >= 3, got %d", c.Chem.MaxRingSize)
	}

	if c.Dataset.Name == "" {
		return fmt.Errorf("config: dataset.name is required")
	}
	switch c.Dataset.Sink {
	case "parquet", "postgres":
	default:
		return fmt.Errorf("config: dataset.sink %q is invalid; expected parquet|postgres", c.Dataset.Sink)
	}

	if c.Dataset.Sink == "postgres" {
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required for the postgres sink")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required for the postgres sink")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required for the postgres sink")
		}
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
