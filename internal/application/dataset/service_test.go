package dataset

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemforge/molpipe/internal/domain/qm9"
	"github.com/chemforge/molpipe/internal/domain/smiles"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/internal/infrastructure/messaging/kafka"
	"github.com/chemforge/molpipe/internal/infrastructure/monitoring/metrics"
	"github.com/chemforge/molpipe/internal/infrastructure/storage/minio"
	"github.com/chemforge/molpipe/pkg/errors"
)

type fakeRegistry struct {
	mu        sync.Mutex
	published map[string][]byte
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{published: make(map[string][]byte)}
}

func (f *fakeRegistry) PublishParquet(_ context.Context, dataset, version, filePath string) (*minio.PublishResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := dataset + "/" + version + "/data.parquet"
	f.published[key] = data
	return &minio.PublishResult{ObjectKey: key, Size: int64(len(data))}, nil
}

func (f *fakeRegistry) PublishVocabulary(_ context.Context, dataset, version string, payload []byte) (*minio.PublishResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := dataset + "/" + version + "/vocab.json"
	f.published[key] = payload
	return &minio.PublishResult{ObjectKey: key, Size: int64(len(payload))}, nil
}

func (f *fakeRegistry) Exists(_ context.Context, dataset, version, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.published[dataset+"/"+version+"/"+name]
	return ok, nil
}

func (f *fakeRegistry) ListVersions(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

type fakeSink struct {
	dataset string
	records []*qm9.Record
}

func (f *fakeSink) InsertBatch(_ context.Context, dataset string, records []*qm9.Record) (int64, error) {
	f.dataset = dataset
	f.records = records
	return int64(len(records)), nil
}

func newTestService(t *testing.T, outputDir string, opts ...ServiceOption) *Service {
	t.Helper()
	return NewService(
		newTestBuilder(),
		NewParquetExporter(logging.NewNopLogger()),
		kafka.NewDisabledProducer(logging.NewNopLogger()),
		metrics.New("test"),
		logging.NewNopLogger(),
		"qm9", outputDir,
		opts...)
}

func TestServiceBuildWritesArtifacts(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	for i := 0; i < 3; i++ {
		writeStructureFile(t, inputDir, fmt.Sprintf("mol_%03d", i))
	}

	svc := newTestService(t, outputDir)
	summary, err := svc.Build(context.Background(), inputDir, "*.xyz")
	require.NoError(t, err)

	assert.EqualValues(t, 3, summary.Rows)
	assert.Equal(t, 0, summary.Skipped)

	info, err := os.Stat(summary.ParquetPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	vocab, err := smiles.ReadVocabularyFile(summary.VocabPath)
	require.NoError(t, err)
	assert.Greater(t, vocab.Size(), 0)
}

func TestServiceBuildWithRecordSink(t *testing.T) {
	inputDir := t.TempDir()
	writeStructureFile(t, inputDir, "mol_000")

	sink := &fakeSink{}
	svc := newTestService(t, t.TempDir(), WithRecordSink(sink))

	summary, err := svc.Build(context.Background(), inputDir, "*.xyz")
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Rows)
	assert.Empty(t, summary.ParquetPath)
	assert.Equal(t, "qm9", sink.dataset)
	require.Len(t, sink.records, 1)
	assert.NotEmpty(t, sink.records[0].CanonicalSMILES)
}

func TestServicePublish(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeStructureFile(t, inputDir, "mol_000")

	registry := newFakeRegistry()
	svc := newTestService(t, outputDir, WithRegistry(registry))

	_, err := svc.Build(context.Background(), inputDir, "*.xyz")
	require.NoError(t, err)

	version, err := svc.Publish(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", version)

	ok, err := registry.Exists(context.Background(), "qm9", "v1", "data.parquet")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = registry.Exists(context.Background(), "qm9", "v1", "vocab.json")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestServicePublishBeforeBuild(t *testing.T) {
	svc := newTestService(t, t.TempDir(), WithRegistry(newFakeRegistry()))

	_, err := svc.Publish(context.Background(), "v1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

type downWriter struct{}

func (downWriter) WriteMessages(context.Context, ...kafkago.Message) error {
	return fmt.Errorf("broker down")
}

func (downWriter) Close() error { return nil }

func TestServiceBuildCountsDroppedEvents(t *testing.T) {
	inputDir := t.TempDir()
	writeStructureFile(t, inputDir, "mol_000")

	m := metrics.New("test")
	svc := NewService(
		newTestBuilder(),
		NewParquetExporter(logging.NewNopLogger()),
		kafka.NewProducerWithWriter(downWriter{}, logging.NewNopLogger()),
		m,
		logging.NewNopLogger(),
		"qm9", t.TempDir())

	_, err := svc.Build(context.Background(), inputDir, "*.xyz")
	require.NoError(t, err)

	// Build emits started and completed; neither reaches the broker.
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsDropped))
}

func TestServicePublishWithoutRegistry(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	_, err := svc.Publish(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSinkUnavailable))
}
