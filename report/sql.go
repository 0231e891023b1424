package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const createResultsTable = `CREATE TABLE IF NOT EXISTS assocmem_results (
	run_id      VARCHAR(64)  NOT NULL,
	table_name  VARCHAR(255) NOT NULL,
	row_idx     INTEGER      NOT NULL,
	col_idx     INTEGER      NOT NULL,
	column_name VARCHAR(255) NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	created_at  VARCHAR(32)  NOT NULL,
	PRIMARY KEY (run_id, table_name, row_idx, col_idx)
)`

const insertResult = `INSERT INTO assocmem_results
	(run_id, table_name, row_idx, col_idx, column_name, value, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// SQLSink stores tables in long format, one row per cell, keyed by run id.
// It uses "?" placeholders and runs on MySQL and SQLite.
type SQLSink struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

// NewSQLSink creates the results table if needed and returns a sink that
// tags every cell with runID.
func NewSQLSink(ctx context.Context, db *sql.DB, runID string) (*SQLSink, error) {
	if _, err := db.ExecContext(ctx, createResultsTable); err != nil {
		return nil, fmt.Errorf("create results table: %w", err)
	}
	return &SQLSink{db: db, runID: runID, now: time.Now}, nil
}

// OpenSQLSink opens a database with the given driver ("mysql", "sqlite3")
// and wraps it in a sink that owns the connection.
func OpenSQLSink(ctx context.Context, driver, dsn, runID string) (*SQLSink, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	s, err := NewSQLSink(ctx, db, runID)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Write stores all tables in one transaction.
func (s *SQLSink) Write(ctx context.Context, tables ...Table) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertResult)
	if err != nil {
		return err
	}
	defer stmt.Close()

	created := s.now().UTC().Format(time.RFC3339)

	for _, t := range tables {
		for i, row := range t.Rows {
			for j, v := range row {
				col := ""
				if j < len(t.Columns) {
					col = t.Columns[j]
				}
				if _, err := stmt.ExecContext(ctx, s.runID, t.Name, i, j, col, v, created); err != nil {
					return fmt.Errorf("insert %s[%d][%d]: %w", t.Name, i, j, err)
				}
			}
		}
	}

	return tx.Commit()
}

// Read loads one table of this sink's run.
func (s *SQLSink) Read(ctx context.Context, name string) (Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_idx, col_idx, column_name, value FROM assocmem_results
		 WHERE run_id = ? AND table_name = ? ORDER BY row_idx, col_idx`,
		s.runID, name)
	if err != nil {
		return Table{}, err
	}
	defer rows.Close()

	t := Table{Name: name}
	for rows.Next() {
		var (
			i, j int
			col  string
			v    float64
		)
		if err := rows.Scan(&i, &j, &col, &v); err != nil {
			return Table{}, err
		}
		for len(t.Rows) <= i {
			t.Rows = append(t.Rows, nil)
		}
		t.Rows[i] = append(t.Rows[i], v)
		if i == 0 {
			t.Columns = append(t.Columns, col)
		}
	}
	if err := rows.Err(); err != nil {
		return Table{}, err
	}
	if len(t.Rows) == 0 {
		return Table{}, sql.ErrNoRows
	}
	return t, nil
}

// Close closes the database.
func (s *SQLSink) Close() error { return s.db.Close() }
