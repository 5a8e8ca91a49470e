package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Input.Dir = "/data/qm9"
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultInputPattern, cfg.Input.Pattern)
	assert.Equal(t, DefaultMaxRingSize, cfg.Chem.MaxRingSize)
	assert.Equal(t, DefaultDatasetName, cfg.Dataset.Name)
	assert.Equal(t, DefaultSink, cfg.Dataset.Sink)
	assert.Equal(t, DefaultWorkerConcurrency, cfg.Worker.Concurrency)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, DefaultRedisKeyPrefix, cfg.Redis.KeyPrefix)
}

func TestApplyDefaults_ExplicitValuesWin(t *testing.T) {
	cfg := &Config{}
	cfg.Worker.Concurrency = 8
	cfg.Chem.MaxRingSize = 12
	ApplyDefaults(cfg)

	assert.Equal(t, 8, cfg.Worker.Concurrency)
	assert.Equal(t, 12, cfg.Chem.MaxRingSize)
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing input dir", func(t *testing.T) {
		cfg := validConfig()
		cfg.Input.Dir = ""
		assert.ErrorContains(t, cfg.Validate(), "input.dir")
	})

	t.Run("ring size too small", func(t *testing.T) {
		cfg := validConfig()
		cfg.Chem.MaxRingSize = 2
		assert.ErrorContains(t, cfg.Validate(), "max_ring_size")
	})

	t.Run("unknown sink", func(t *testing.T) {
		cfg := validConfig()
		cfg.Dataset.Sink = "csv"
		assert.ErrorContains(t, cfg.Validate(), "dataset.sink")
	})

	t.Run("postgres sink requires database settings", func(t *testing.T) {
		cfg := validConfig()
		cfg.Dataset.Sink = "postgres"
		assert.ErrorContains(t, cfg.Validate(), "database.host")

		cfg.Database.Host = "localhost"
		assert.ErrorContains(t, cfg.Validate(), "database.user")

		cfg.Database.User = "molpipe"
		assert.ErrorContains(t, cfg.Validate(), "database.db_name")

		cfg.Database.DBName = "molpipe"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.Log.Level = "verbose"
		assert.ErrorContains(t, cfg.Validate(), "log.level")
	})
}

func TestLoad_FileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "molpipe.yaml")
	yaml := `
input:
  dir: /data/qm9
  pattern: "*.xyz"
dataset:
  name: qm9-v2
worker:
  concurrency: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("MOLPIPE_WORKER_CONCURRENCY", "6")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/qm9", cfg.Input.Dir)
	assert.Equal(t, "qm9-v2", cfg.Dataset.Name)
	// Environment overrides the file.
	assert.Equal(t, 6, cfg.Worker.Concurrency)
	// Unset fields fall back to defaults.
	assert.Equal(t, DefaultMaxRingSize, cfg.Chem.MaxRingSize)
}

func TestLoadFromEnv_EnvOnly(t *testing.T) {
	t.Setenv("MOLPIPE_INPUT_DIR", "/data/qm9")
	t.Setenv("MOLPIPE_DATASET_NAME", "qm9-env")
	t.Setenv("MOLPIPE_REDIS_ADDR", "localhost:6379")
	t.Setenv("MOLPIPE_WORKER_CONCURRENCY", "3")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/data/qm9", cfg.Input.Dir)
	assert.Equal(t, "qm9-env", cfg.Dataset.Name)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Worker.Concurrency)
	// Unset fields fall back to defaults.
	assert.Equal(t, DefaultInputPattern, cfg.Input.Pattern)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_NoEnvStillDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultDatasetName, cfg.Dataset.Name)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	// Load does not validate; input.dir stays empty until a command
	// supplies it and validates.
	assert.Empty(t, cfg.Input.Dir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "molpipe.yaml")
	write := func(level string) {
		yaml := "input:\n  dir: /data/qm9\nlog:\n  level: " + level + "\n"
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	}
	write("info")

	changes := make(chan *Config, 1)
	Watch(path, func(cfg *Config) {
		select {
		case changes <- cfg:
		default:
		}
	})

	write("debug")

	select {
	case cfg := <-changes:
		assert.Equal(t, "debug", cfg.Log.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not observed")
	}
}
