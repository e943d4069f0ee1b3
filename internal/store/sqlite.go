package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/i474232898/rainlog/internal/rainfall"

	_ "modernc.org/sqlite"
)

const (
	insertRecordSQL = `INSERT INTO rainfall_records (id, date, amount) VALUES (?, ?, ?)`

	// Inserts only when no record exists for the date; zero rows affected
	// means the date is taken.
	insertUniqueDateSQL = `INSERT INTO rainfall_records (id, date, amount)
SELECT ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM rainfall_records WHERE date = ?)`

	listRecordsSQL = `SELECT id, date, amount FROM rainfall_records`
)

// SQLiteStore keeps records in a single sqlite table. Amounts are stored as
// decimal strings so no precision is lost.
type SQLiteStore struct {
	db                   *sql.DB
	allowMultiplePerDate bool
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteStore(dbPath string, allowMultiplePerDate bool) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteStore{
		db:                   db,
		allowMultiplePerDate: allowMultiplePerDate,
	}, nil
}

// Insert writes a single row.
func (s *SQLiteStore) Insert(ctx context.Context, r rainfall.Record) (rainfall.Record, error) {
	day := r.Date.String()
	amount := r.Amount.String()

	if s.allowMultiplePerDate {
		if _, err := s.db.ExecContext(ctx, insertRecordSQL, r.ID, day, amount); err != nil {
			return rainfall.Record{}, fmt.Errorf("insert rainfall record: %w", err)
		}
		return r, nil
	}

	res, err := s.db.ExecContext(ctx, insertUniqueDateSQL, r.ID, day, amount, day)
	if err != nil {
		return rainfall.Record{}, fmt.Errorf("insert rainfall record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return rainfall.Record{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return rainfall.Record{}, rainfall.ErrDuplicateDate
	}
	return r, nil
}

// List scans the whole table.
func (s *SQLiteStore) List(ctx context.Context) ([]rainfall.Record, error) {
	rows, err := s.db.QueryContext(ctx, listRecordsSQL)
	if err != nil {
		return nil, fmt.Errorf("query rainfall records: %w", err)
	}
	defer rows.Close()

	var out []rainfall.Record
	for rows.Next() {
		var id, day, amount string
		if err := rows.Scan(&id, &day, &amount); err != nil {
			return nil, fmt.Errorf("scan rainfall record: %w", err)
		}
		date, err := rainfall.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("record %s: parse amount %q: %w", id, amount, err)
		}
		out = append(out, rainfall.Record{ID: id, Date: date, Amount: rainfall.NewAmount(d)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rainfall records: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
