// Package dataset implements the aggregation pipeline: scan a directory of
// structure files, parse and augment each one, and export the resulting
// table.
package dataset

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chemforge/molpipe/internal/domain/chem"
	"github.com/chemforge/molpipe/internal/domain/qm9"
	"github.com/chemforge/molpipe/internal/domain/smiles"
	"github.com/chemforge/molpipe/internal/infrastructure/database/redis"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/internal/infrastructure/monitoring/metrics"
	"github.com/chemforge/molpipe/pkg/errors"
)

// Builder scans an input directory and produces augmented records.  Files
// are independent and processed in any order; the only shared state during
// a build is the read-only toolkit and the descriptor cache.
type Builder struct {
	toolkit     *chem.Toolkit
	cache       redis.DescriptorCache
	metrics     *metrics.PipelineMetrics
	logger      logging.Logger
	concurrency int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCache enables the descriptor cache.
func WithCache(cache redis.DescriptorCache) BuilderOption {
	return func(b *Builder) { b.cache = cache }
}

// WithConcurrency bounds the number of files processed in parallel.
func WithConcurrency(n int) BuilderOption {
	return func(b *Builder) {
		if n >= 1 {
			b.concurrency = n
		}
	}
}

// NewBuilder wires a builder.  Concurrency defaults to 1, the fully
// sequential behaviour.
func NewBuilder(toolkit *chem.Toolkit, m *metrics.PipelineMetrics, logger logging.Logger, opts ...BuilderOption) *Builder {
	b := &Builder{
		toolkit:     toolkit,
		metrics:     m,
		logger:      logger.Named("builder"),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildResult summarises one directory scan.
type BuildResult struct {
	Records []*qm9.Record
	Parsed  int
	Skipped int
	// SkippedByReason counts skipped files per error code.
	SkippedByReason map[string]int
}

// Build parses every file matching pattern under dir.  A malformed or
// chemically unparseable file is logged and skipped; it never aborts the
// batch.  Any other failure is fatal.  Records come back sorted by name so
// the output is deterministic regardless of worker scheduling.
func (b *Builder) Build(ctx context.Context, dir, pattern string) (*BuildResult, error) {
	if !b.toolkit.HasNPModel() {
		b.logger.Warn("no natural-product model configured, np_score column will be omitted")
	}

	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidParam, "bad input pattern").
			WithDetail("pattern=" + pattern)
	}
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrCodeDatasetEmpty, "no input files matched").
			WithDetail("dir=" + dir + " pattern=" + pattern)
	}
	sort.Strings(paths)
	b.logger.Info("scanning input directory",
		logging.String("dir", dir),
		logging.Int("files", len(paths)),
		logging.Int("concurrency", b.concurrency))

	var (
		mu      sync.Mutex
		records []*qm9.Record
		skipped = make(map[string]int)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := b.processFile(ctx, path)
			if err != nil {
				if errors.IsSkippable(err) {
					code := string(errors.GetCode(err))
					b.logger.Warn("skipping file",
						logging.String("path", path),
						logging.String("code", code),
						logging.Err(err))
					b.metrics.RecordsSkipped.WithLabelValues(code).Inc()
					mu.Lock()
					skipped[code]++
					mu.Unlock()
					return nil
				}
				return err
			}
			b.metrics.RecordsParsed.Inc()
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	result := &BuildResult{
		Records:         records,
		Parsed:          len(records),
		SkippedByReason: skipped,
	}
	for _, n := range skipped {
		result.Skipped += n
	}
	b.logger.Info("directory scan finished",
		logging.Int("parsed", result.Parsed),
		logging.Int("skipped", result.Skipped))
	return result, nil
}

// processFile parses one structure file and augments it with the canonical
// SMILES and the descriptor map.
func (b *Builder) processFile(ctx context.Context, path string) (*qm9.Record, error) {
	start := time.Now()
	rec, err := qm9.ParseFile(path)
	if err != nil {
		return nil, err
	}
	b.metrics.ParseDuration.Observe(time.Since(start).Seconds())

	canonical, err := b.toolkit.Canonicalize(rec.RelaxedSMILES)
	if err != nil {
		return nil, err
	}
	// A canonical string the tokenizer cannot cover would later poison the
	// vocabulary build, so such records are skipped here instead.
	if _, err := smiles.Tokenize(canonical); err != nil {
		return nil, err
	}

	descriptors, err := b.descriptorsFor(ctx, canonical)
	if err != nil {
		return nil, err
	}
	return rec.WithAugmentation(canonical, descriptors), nil
}

func (b *Builder) descriptorsFor(ctx context.Context, canonical string) (map[string]float64, error) {
	if b.cache != nil {
		cached, err := b.cache.Get(ctx, canonical)
		if err == nil {
			b.metrics.CacheHits.Inc()
			return cached, nil
		}
		if err != redis.ErrCacheMiss {
			// Cache trouble degrades to computation, it never fails a record.
			b.logger.Warn("descriptor cache unavailable", logging.Err(err))
		}
		b.metrics.CacheMisses.Inc()
	}

	start := time.Now()
	descriptors, err := b.toolkit.Descriptors(canonical)
	if err != nil {
		return nil, err
	}
	b.metrics.AugmentDuration.Observe(time.Since(start).Seconds())

	if b.cache != nil {
		if err := b.cache.Put(ctx, canonical, descriptors); err != nil {
			b.logger.Warn("descriptor cache write failed", logging.Err(err))
		}
	}
	return descriptors, nil
}
