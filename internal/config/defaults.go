package config

import "time"

// Default value constants.
const (
	DefaultInputPattern = "*.xyz"

	DefaultMaxRingSize = 8

	DefaultDatasetName = "qm9"
	DefaultOutputDir   = "./out"
	DefaultSink        = "parquet"

	DefaultDBPort     = 5432
	DefaultDBMaxConns = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 1

	DefaultMetricsNamespace = "molpipe"

	DefaultKafkaTopicPrefix = "molpipe"

	// DefaultRedisKeyPrefix matches the descriptor cache's own fallback;
	// keys come out as "molpipe:desc:<canonical SMILES>".
	DefaultRedisKeyPrefix = "molpipe:desc:"
)

// ApplyDefaults fills every zero-value field in cfg with the pipeline
// default.  Fields already set by the caller are left unchanged so that
// explicit configuration always wins.  It must run after unmarshalling and
// before Validate so optional-but-defaulted fields are never seen as
// missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Input.Pattern == "" {
		cfg.Input.Pattern = DefaultInputPattern
	}

	if cfg.Chem.MaxRingSize == 0 {
		cfg.Chem.MaxRingSize = DefaultMaxRingSize
	}

	if cfg.Dataset.Name == "" {
		cfg.Dataset.Name = DefaultDatasetName
	}
	if cfg.Dataset.OutputDir == "" {
		cfg.Dataset.OutputDir = DefaultOutputDir
	}
	if cfg.Dataset.Sink == "" {
		cfg.Dataset.Sink = DefaultSink
	}

	if cfg.Registry.Timeout == 0 {
		cfg.Registry.Timeout = 60 * time.Second
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}

	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 24 * time.Hour
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	if cfg.Kafka.TopicPrefix == "" {
		cfg.Kafka.TopicPrefix = DefaultKafkaTopicPrefix
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = time.Second
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 3
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
