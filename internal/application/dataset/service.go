package dataset

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/chemforge/molpipe/internal/domain/qm9"
	"github.com/chemforge/molpipe/internal/domain/smiles"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/internal/infrastructure/messaging/kafka"
	"github.com/chemforge/molpipe/internal/infrastructure/monitoring/metrics"
	"github.com/chemforge/molpipe/internal/infrastructure/storage/minio"
	"github.com/chemforge/molpipe/pkg/errors"
)

// RecordSink stores the finished batch; the postgres repository implements
// it for the relational sink.
type RecordSink interface {
	InsertBatch(ctx context.Context, dataset string, records []*qm9.Record) (int64, error)
}

// Service orchestrates a dataset build end to end: scan, augment, sink,
// vocabulary, registry publish.
type Service struct {
	builder  *Builder
	exporter *ParquetExporter
	sink     RecordSink
	registry minio.DatasetRegistry
	producer *kafka.EventProducer
	metrics  *metrics.PipelineMetrics
	logger   logging.Logger

	dataset   string
	outputDir string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecordSink routes the batch into a relational sink instead of the
// Parquet file.
func WithRecordSink(sink RecordSink) ServiceOption {
	return func(s *Service) { s.sink = sink }
}

// WithRegistry enables registry publishing.
func WithRegistry(registry minio.DatasetRegistry) ServiceOption {
	return func(s *Service) { s.registry = registry }
}

// NewService wires the orchestrator.  producer must not be nil; use
// kafka.NewDisabledProducer when event publishing is off.
func NewService(
	builder *Builder,
	exporter *ParquetExporter,
	producer *kafka.EventProducer,
	m *metrics.PipelineMetrics,
	logger logging.Logger,
	dataset, outputDir string,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		builder:   builder,
		exporter:  exporter,
		producer:  producer,
		metrics:   m,
		logger:    logger.Named("dataset"),
		dataset:   dataset,
		outputDir: outputDir,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildSummary reports one completed build.
type BuildSummary struct {
	Dataset     string
	Rows        int64
	Skipped     int
	ParquetPath string
	VocabPath   string
	Elapsed     time.Duration
}

// ParquetPath returns the table location for a dataset name.
func ParquetPath(outputDir, dataset string) string {
	return filepath.Join(outputDir, dataset+".parquet")
}

// VocabPath returns the vocabulary location for a dataset name.
func VocabPath(outputDir, dataset string) string {
	return filepath.Join(outputDir, dataset+"_vocab.json")
}

// Build runs the full pipeline for the configured input directory.
func (s *Service) Build(ctx context.Context, dir, pattern string) (*BuildSummary, error) {
	start := time.Now()
	s.publishEvent(ctx, kafka.EventBuildStarted, nil)

	result, err := s.builder.Build(ctx, dir, pattern)
	if err != nil {
		s.publishEvent(ctx, kafka.EventBuildFailed, map[string]string{
			"error": err.Error(),
		})
		return nil, err
	}
	if len(result.Records) == 0 {
		err := errors.New(errors.ErrCodeDatasetEmpty, "every input file was skipped")
		s.publishEvent(ctx, kafka.EventBuildFailed, map[string]string{
			"error": err.Error(),
		})
		return nil, err
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "create output directory")
	}

	summary := &BuildSummary{
		Dataset: s.dataset,
		Skipped: result.Skipped,
	}

	if s.sink != nil {
		rows, err := s.sink.InsertBatch(ctx, s.dataset, result.Records)
		if err != nil {
			return nil, err
		}
		summary.Rows = rows
	} else {
		path := ParquetPath(s.outputDir, s.dataset)
		rows, err := s.exporter.Export(path, result.Records)
		if err != nil {
			return nil, err
		}
		summary.Rows = rows
		summary.ParquetPath = path
		if info, err := os.Stat(path); err == nil {
			s.metrics.ExportBytes.WithLabelValues("parquet").Add(float64(info.Size()))
		}
	}

	vocabPath := VocabPath(s.outputDir, s.dataset)
	if err := s.writeVocabulary(result.Records, vocabPath); err != nil {
		return nil, err
	}
	summary.VocabPath = vocabPath

	summary.Elapsed = time.Since(start)
	s.metrics.BuildDuration.Observe(summary.Elapsed.Seconds())
	s.metrics.DatasetRows.WithLabelValues(s.dataset).Set(float64(summary.Rows))

	s.publishEvent(ctx, kafka.EventBuildCompleted, map[string]string{
		"rows":    strconv.FormatInt(summary.Rows, 10),
		"skipped": strconv.Itoa(summary.Skipped),
	})
	s.logger.Info("dataset build completed",
		logging.String("dataset", s.dataset),
		logging.Int64("rows", summary.Rows),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// BuildVocabulary tokenises the canonical SMILES of every record and writes
// the vocabulary without running the rest of the pipeline.
func (s *Service) BuildVocabulary(ctx context.Context, dir, pattern string) (string, int, error) {
	result, err := s.builder.Build(ctx, dir, pattern)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", 0, errors.Wrap(err, errors.ErrCodeExportFailed, "create output directory")
	}
	path := VocabPath(s.outputDir, s.dataset)
	if err := s.writeVocabulary(result.Records, path); err != nil {
		return "", 0, err
	}
	vocab, err := smiles.ReadVocabularyFile(path)
	if err != nil {
		return "", 0, err
	}
	return path, vocab.Size(), nil
}

// Publish uploads the current build artifacts to the dataset registry.
// version may be empty, in which case a timestamped one is generated.
func (s *Service) Publish(ctx context.Context, version string) (string, error) {
	if s.registry == nil {
		return "", errors.New(errors.ErrCodeSinkUnavailable, "no dataset registry configured")
	}
	if version == "" {
		version = time.Now().UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
	}

	parquetPath := ParquetPath(s.outputDir, s.dataset)
	if _, err := os.Stat(parquetPath); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeNotFound, "dataset table not built yet").
			WithDetail("path=" + parquetPath)
	}
	if _, err := s.registry.PublishParquet(ctx, s.dataset, version, parquetPath); err != nil {
		return "", err
	}

	vocabPayload, err := os.ReadFile(VocabPath(s.outputDir, s.dataset))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeNotFound, "vocabulary not built yet")
	}
	if _, err := s.registry.PublishVocabulary(ctx, s.dataset, version, vocabPayload); err != nil {
		return "", err
	}

	s.publishEvent(ctx, kafka.EventPublished, map[string]string{
		"version": version,
	})
	s.logger.Info("dataset published",
		logging.String("dataset", s.dataset),
		logging.String("version", version))
	return version, nil
}

// publishEvent emits one lifecycle event and counts delivery failures.
func (s *Service) publishEvent(ctx context.Context, eventType string, fields map[string]string) {
	if !s.producer.PublishBestEffort(ctx, eventType, s.dataset, fields) {
		s.metrics.EventsDropped.Inc()
	}
}

// writeVocabulary builds the token vocabulary over the canonical SMILES of
// the batch.  A tokenizer failure here is fatal: the records already passed
// canonicalisation, so an uncoverable token means the grammar has a hole.
func (s *Service) writeVocabulary(records []*qm9.Record, path string) error {
	builder := smiles.NewVocabularyBuilder()
	for _, rec := range records {
		if err := builder.Add(rec.CanonicalSMILES); err != nil {
			return errors.Wrap(err, errors.ErrCodeTokenization, "tokenize canonical SMILES").
				WithDetail("record=" + rec.Name)
		}
	}
	vocab, err := builder.Build()
	if err != nil {
		return err
	}
	if err := vocab.WriteFile(path); err != nil {
		return err
	}

	data, _ := json.Marshal(vocab)
	s.logger.Info("wrote vocabulary",
		logging.String("path", path),
		logging.Int("tokens", vocab.Size()),
		logging.Int("bytes", len(data)))
	return nil
}
