// Package store archives retrieved closing reports in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	_ "modernc.org/sqlite"

	"bhavcli/pkg/contracts/domain"
)

// ErrReportNotStored is returned when no report is archived for a day
var ErrReportNotStored = errors.New("report not stored")

// ReportSummary describes one archived report
type ReportSummary struct {
	Exchange    domain.Exchange `json:"exchange"`
	Date        civil.Date      `json:"date"`
	SourceURL   string          `json:"report_url"`
	Records     int             `json:"records"`
	RetrievedAt time.Time       `json:"retrieved_at"`
}

// Store is a SQLite report archive
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (creating if needed) the archive at path
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveReport replaces the archived report of ex for date
func (s *Store) SaveReport(ctx context.Context, ex domain.Exchange, date civil.Date, report *domain.ClosingReport) (err error) {
	if report == nil {
		return fmt.Errorf("sqlite: nil report")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	day := date.String()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM report_records WHERE exchange = ? AND trade_date = ?`, ex.String(), day); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO reports (exchange, trade_date, source_url, record_count, retrieved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(exchange, trade_date)
		DO UPDATE SET
			source_url = excluded.source_url,
			record_count = excluded.record_count,
			retrieved_at = excluded.retrieved_at
	`, ex.String(), day, report.SourceURL, len(report.Records), s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_records (
			exchange, trade_date, position, name, isin, symbol, series,
			open, high, low, close, last, prev_close,
			total_trading_volume, total_trading_value, total_no_of_tx_executed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range report.Records {
		if _, err = stmt.ExecContext(ctx,
			ex.String(), day, i,
			r.Name, r.ISIN, r.Symbol, r.Series,
			r.Open, r.High, r.Low, r.Close, r.Last, r.PrevClose,
			r.TotalTradingVolume, r.TotalTradingValue, r.TotalNoOfTxExecuted,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadReport returns the archived report of ex for date in its original row order
func (s *Store) LoadReport(ctx context.Context, ex domain.Exchange, date civil.Date) (*domain.ClosingReport, error) {
	day := date.String()

	var report domain.ClosingReport
	err := s.db.QueryRowContext(ctx,
		`SELECT source_url FROM reports WHERE exchange = ? AND trade_date = ?`, ex.String(), day,
	).Scan(&report.SourceURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotStored
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, isin, symbol, series,
			open, high, low, close, last, prev_close,
			total_trading_volume, total_trading_value, total_no_of_tx_executed
		FROM report_records
		WHERE exchange = ? AND trade_date = ?
		ORDER BY position
	`, ex.String(), day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report.Records = []domain.StockRecord{}
	for rows.Next() {
		var r domain.StockRecord
		if err := rows.Scan(
			&r.Name, &r.ISIN, &r.Symbol, &r.Series,
			&r.Open, &r.High, &r.Low, &r.Close, &r.Last, &r.PrevClose,
			&r.TotalTradingVolume, &r.TotalTradingValue, &r.TotalNoOfTxExecuted,
		); err != nil {
			return nil, err
		}
		report.Records = append(report.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &report, nil
}

// ListReports returns the archived reports of ex, newest trading day first
func (s *Store) ListReports(ctx context.Context, ex domain.Exchange) ([]ReportSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_date, source_url, record_count, retrieved_at
		FROM reports
		WHERE exchange = ?
		ORDER BY trade_date DESC
	`, ex.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var (
			day, retrieved string
			summary        = ReportSummary{Exchange: ex}
		)
		if err := rows.Scan(&day, &summary.SourceURL, &summary.Records, &retrieved); err != nil {
			return nil, err
		}
		if summary.Date, err = civil.ParseDate(day); err != nil {
			return nil, fmt.Errorf("sqlite: bad trade date %q: %w", day, err)
		}
		if summary.RetrievedAt, err = time.Parse(time.RFC3339Nano, retrieved); err != nil {
			return nil, fmt.Errorf("sqlite: bad retrieval time %q: %w", retrieved, err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS reports (
			exchange TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			source_url TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			retrieved_at TEXT NOT NULL,
			PRIMARY KEY (exchange, trade_date)
		);`,
		`CREATE TABLE IF NOT EXISTS report_records (
			exchange TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			isin TEXT NOT NULL,
			symbol TEXT NOT NULL,
			series TEXT NOT NULL,
			open TEXT,
			high TEXT,
			low TEXT,
			close TEXT,
			last TEXT,
			prev_close TEXT,
			total_trading_volume TEXT,
			total_trading_value TEXT,
			total_no_of_tx_executed TEXT,
			PRIMARY KEY (exchange, trade_date, position),
			FOREIGN KEY (exchange, trade_date) REFERENCES reports(exchange, trade_date) ON DELETE CASCADE
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}
