package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/chemforge/molpipe/internal/domain/qm9"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/pkg/errors"
)

// RecordRepository persists augmented molecule records when the postgres
// sink is selected.
type RecordRepository struct {
	conn   *Connection
	logger logging.Logger
}

// NewRecordRepository builds the repository on a live connection.
func NewRecordRepository(conn *Connection, logger logging.Logger) *RecordRepository {
	return &RecordRepository{conn: conn, logger: logger.Named("record_repo")}
}

var recordColumns = []string{
	"dataset",
	"name",
	"atom_count",
	"smiles",
	"canonical_smiles",
	"inchi",
	"atomic_symbols",
	"positions",
	"partial_charges",
	"vibrational_frequencies",
	"properties",
	"descriptors",
}

// InsertBatch bulk-loads one dataset's records via the COPY protocol.  The
// batch is written in a single transaction so a failed run leaves no
// partial dataset behind.
func (r *RecordRepository) InsertBatch(ctx context.Context, dataset string, records []*qm9.Record) (int64, error) {
	if len(records) == 0 {
		return 0, errors.New(errors.ErrCodeDatasetEmpty, "no records to insert")
	}

	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		encoded := make([][]byte, 0, 6)
		for _, v := range []interface{}{
			rec.Symbols, rec.Positions, rec.Charges, rec.Frequencies,
			rec.Properties, rec.Descriptors,
		} {
			data, err := json.Marshal(v)
			if err != nil {
				return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "encode record field").
					WithDetail("record=" + rec.Name)
			}
			encoded = append(encoded, data)
		}
		rows = append(rows, []interface{}{
			dataset,
			rec.Name,
			rec.AtomCount,
			rec.SMILES,
			rec.CanonicalSMILES,
			rec.InChI,
			encoded[0],
			encoded[1],
			encoded[2],
			encoded[3],
			encoded[4],
			encoded[5],
		})
	}

	tx, err := r.conn.pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM molecule_records WHERE dataset = $1`, dataset); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "clear previous dataset rows")
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"molecule_records"},
		recordColumns,
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "copy records")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "commit transaction")
	}

	r.logger.Info("inserted dataset records",
		logging.String("dataset", dataset),
		logging.Int64("rows", n))
	return n, nil
}

// Count returns the number of stored records for a dataset.
func (r *RecordRepository) Count(ctx context.Context, dataset string) (int64, error) {
	var n int64
	err := r.conn.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM molecule_records WHERE dataset = $1`, dataset).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "count records")
	}
	return n, nil
}
