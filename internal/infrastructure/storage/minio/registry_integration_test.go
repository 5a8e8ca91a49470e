//go:build integration

// Integration tests for the dataset registry against a real MinIO server.
// They require Docker and are gated behind the "integration" build tag.
package minio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"

	"github.com/chemforge/molpipe/internal/config"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/internal/infrastructure/storage/minio"
)

// startMinio launches a MinIO container and returns a connected registry.
func startMinio(t *testing.T) minio.DatasetRegistry {
	t.Helper()
	ctx := context.Background()

	container, err := tcminio.RunContainer(ctx,
		testcontainers.WithImage("minio/minio:RELEASE.2024-01-16T16-07-38Z"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := minio.NewClient(ctx, config.RegistryConfig{
		Endpoint:  endpoint,
		AccessKey: container.Username,
		SecretKey: container.Password,
		Bucket:    "molpipe-test",
		Timeout:   60 * time.Second,
	}, logging.NewNopLogger())
	require.NoError(t, err)

	return minio.NewDatasetRegistry(client, logging.NewNopLogger())
}

func TestRegistryPublishRoundTrip(t *testing.T) {
	registry := startMinio(t)
	ctx := context.Background()

	tablePath := filepath.Join(t.TempDir(), "qm9.parquet")
	require.NoError(t, os.WriteFile(tablePath, []byte("not a real table"), 0o644))

	result, err := registry.PublishParquet(ctx, "qm9", "v1", tablePath)
	require.NoError(t, err)
	assert.Equal(t, "qm9/v1/data.parquet", result.ObjectKey)
	assert.Equal(t, int64(16), result.Size)

	_, err = registry.PublishVocabulary(ctx, "qm9", "v1", []byte(`{"C":0,"O":1}`))
	require.NoError(t, err)

	for _, name := range []string{"data.parquet", "vocab.json"} {
		ok, err := registry.Exists(ctx, "qm9", "v1", name)
		require.NoError(t, err)
		assert.True(t, ok, "object %s should exist", name)
	}

	ok, err := registry.Exists(ctx, "qm9", "v2", "data.parquet")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryListVersions(t *testing.T) {
	registry := startMinio(t)
	ctx := context.Background()

	for _, version := range []string{"v1", "v2"} {
		_, err := registry.PublishVocabulary(ctx, "qm9", version, []byte(`{}`))
		require.NoError(t, err)
	}

	versions, err := registry.ListVersions(ctx, "qm9")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1", "v2"}, versions)
}
