package dataset

import (
	"os"
	"sort"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/chemforge/molpipe/internal/domain/qm9"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/pkg/errors"
)

// parquetChunkSize keeps each row group comfortably within one read.
const parquetChunkSize = 64 * 1024

// ParquetExporter writes one dataset build to a zstd-compressed Parquet
// file: identifier and SMILES columns, the per-atom lists (symbols,
// flattened coordinates, partial charges) and frequencies, the fifteen
// scalar properties, and one column per descriptor present in the batch.
type ParquetExporter struct {
	logger logging.Logger
}

// NewParquetExporter builds the exporter.
func NewParquetExporter(logger logging.Logger) *ParquetExporter {
	return &ParquetExporter{logger: logger.Named("parquet")}
}

// Export writes records to path and returns the number of rows written.
func (e *ParquetExporter) Export(path string, records []*qm9.Record) (int64, error) {
	if len(records) == 0 {
		return 0, errors.New(errors.ErrCodeDatasetEmpty, "no records to export")
	}

	descriptorCols := descriptorColumns(records)
	schema := buildSchema(descriptorCols)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for _, rec := range records {
		col := 0
		builder.Field(col).(*array.StringBuilder).Append(rec.Name)
		col++
		builder.Field(col).(*array.Int32Builder).Append(int32(rec.AtomCount))
		col++
		builder.Field(col).(*array.StringBuilder).Append(rec.SMILES)
		col++
		builder.Field(col).(*array.StringBuilder).Append(rec.CanonicalSMILES)
		col++
		builder.Field(col).(*array.StringBuilder).Append(rec.InChI)
		col++
		appendStringList(builder.Field(col).(*array.ListBuilder), rec.Symbols)
		col++
		appendFloatList(builder.Field(col).(*array.ListBuilder), flattenPositions(rec.Positions))
		col++
		appendFloatList(builder.Field(col).(*array.ListBuilder), rec.Charges)
		col++
		appendFloatList(builder.Field(col).(*array.ListBuilder), rec.Frequencies)
		col++
		for _, name := range qm9.PropertyNames {
			builder.Field(col).(*array.Float64Builder).Append(rec.Properties[name])
			col++
		}
		for _, name := range descriptorCols {
			// A descriptor key absent from one record (a ring size other
			// molecules have) contributes a zero count, not a null.
			builder.Field(col).(*array.Float64Builder).Append(rec.Descriptors[name])
			col++
		}
	}

	arrowRec := builder.NewRecord()
	defer arrowRec.Release()

	table := array.NewTableFromRecords(schema, []arrow.Record{arrowRec})
	defer table.Release()

	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeExportFailed, "create parquet file")
	}
	defer f.Close()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithCompressionLevel(3),
	)
	if err := pqarrow.WriteTable(table, f, parquetChunkSize, props, pqarrow.DefaultWriterProps()); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeExportFailed, "write parquet table").
			WithDetail("path=" + path)
	}

	e.logger.Info("wrote dataset table",
		logging.String("path", path),
		logging.Int("rows", len(records)),
		logging.Int("descriptor_columns", len(descriptorCols)))
	return int64(len(records)), nil
}

func appendStringList(lb *array.ListBuilder, values []string) {
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.StringBuilder)
	for _, v := range values {
		vb.Append(v)
	}
}

func appendFloatList(lb *array.ListBuilder, values []float64) {
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.Float64Builder)
	for _, v := range values {
		vb.Append(v)
	}
}

// flattenPositions lays the N x 3 coordinate block out row-major, so atom i
// occupies elements 3i..3i+2.
func flattenPositions(positions [][3]float64) []float64 {
	out := make([]float64, 0, 3*len(positions))
	for _, p := range positions {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

// descriptorColumns returns the sorted union of descriptor keys across the
// batch, so the schema is stable for a given record set.
func descriptorColumns(records []*qm9.Record) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for name := range rec.Descriptors {
			seen[name] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func buildSchema(descriptorCols []string) *arrow.Schema {
	fields := []arrow.Field{
		{Name: "name", Type: arrow.BinaryTypes.String},
		{Name: "atom_count", Type: arrow.PrimitiveTypes.Int32},
		{Name: "smiles", Type: arrow.BinaryTypes.String},
		{Name: "canonical_smiles", Type: arrow.BinaryTypes.String},
		{Name: "inchi", Type: arrow.BinaryTypes.String},
		{Name: "atomic_symbols", Type: arrow.ListOf(arrow.BinaryTypes.String)},
		{Name: "positions", Type: arrow.ListOf(arrow.PrimitiveTypes.Float64)},
		{Name: "partial_charges", Type: arrow.ListOf(arrow.PrimitiveTypes.Float64)},
		{Name: "vibrational_frequencies", Type: arrow.ListOf(arrow.PrimitiveTypes.Float64)},
	}
	for _, name := range qm9.PropertyNames {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64})
	}
	for _, name := range descriptorCols {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64})
	}
	return arrow.NewSchema(fields, nil)
}
