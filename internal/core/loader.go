package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// LoadErrorKind classifies a failed batch insert.
type LoadErrorKind int

const (
	LoadErrUnknown LoadErrorKind = iota
	LoadErrUnique
	LoadErrForeignKey
)

func (k LoadErrorKind) String() string {
	switch k {
	case LoadErrUnique:
		return "unique constraint violation"
	case LoadErrForeignKey:
		return "foreign key violation"
	default:
		return "insert failed"
	}
}

// PostgreSQL SQLSTATE codes for the constraint failures we classify.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ClassifyLoadError decides whether a batch failed on a unique constraint,
// a foreign key, or something else.
func ClassifyLoadError(err error) LoadErrorKind {
	if err == nil {
		return LoadErrUnknown
	}
	if errors.Is(err, ErrUniqueViolation) {
		return LoadErrUnique
	}
	if errors.Is(err, ErrForeignKeyViolation) {
		return LoadErrForeignKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return LoadErrUnique
		case pgForeignKeyViolation:
			return LoadErrForeignKey
		}
	}

	switch MapError(err).Code {
	case "DB001", "DB002":
		return LoadErrUnique
	case "DB003":
		return LoadErrForeignKey
	}

	// SQLite reports constraint failures as plain messages.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed"):
		return LoadErrUnique
	case strings.Contains(msg, "foreign key constraint failed"):
		return LoadErrForeignKey
	}
	return LoadErrUnknown
}

// LoadResult is the outcome of loading one sheet's records.
type LoadResult struct {
	Imported   int
	Duplicates int
	Failed     int
	Batches    int
	// FailedBatches counts batches that raised an error.
	FailedBatches int
}

// LoadBatches inserts records in fixed-size batches. Each batch is one call to
// InsertSkipDuplicates; records it did not insert count as duplicates. A
// failing batch counts all of its records as failed, records an error, and
// loading continues with the next batch.
//
// rows holds the worksheet row number of each record; it may be nil.
func LoadBatches(ctx context.Context, model Model, records []Record, rows []int, batchSize int, diag *Diagnostics) LoadResult {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var res LoadResult
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		batch := records[start:end]
		res.Batches++

		inserted, err := model.InsertSkipDuplicates(ctx, batch)
		if err != nil {
			res.FailedBatches++
			res.Failed += len(batch)
			kind := ClassifyLoadError(err)
			diag.Errorf("batch %d (%s): %s: %s", res.Batches, rowSpan(rows, start, end), kind, describeLoadError(kind, err))
			continue
		}

		if inserted < 0 {
			inserted = 0
		}
		if inserted > len(batch) {
			inserted = len(batch)
		}
		res.Imported += inserted
		res.Duplicates += len(batch) - inserted
	}
	return res
}

func rowSpan(rows []int, start, end int) string {
	if len(rows) >= end && end > start {
		return fmt.Sprintf("rows %d-%d", rows[start], rows[end-1])
	}
	return fmt.Sprintf("records %d-%d", start+1, end)
}

func describeLoadError(kind LoadErrorKind, err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return pgErr.Detail
	}
	if kind == LoadErrUnknown {
		return err.Error()
	}
	return FormatUserError(err)
}
