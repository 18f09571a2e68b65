// Package summary aggregates fetched report rows per traffic source.
package summary

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"ga4report/internal/api"
)

// SourceTotal is the aggregate for one traffic source
type SourceTotal struct {
	Source      string `json:"source"`
	Visitors    int64  `json:"visitors"`
	Conversions int64  `json:"conversions"`
	Days        int    `json:"days"`
}

// Summary is the per-source breakdown plus overall totals
type Summary struct {
	Sources     []SourceTotal `json:"sources"`
	Visitors    int64         `json:"visitors"`
	Conversions int64         `json:"conversions"`
	Days        int           `json:"days"`
	Rows        int           `json:"rows"`
}

// ConversionRate returns conversions per visitor as a percentage
func (s *Summary) ConversionRate() float64 {
	if s.Visitors == 0 {
		return 0
	}
	return float64(s.Conversions) / float64(s.Visitors) * 100
}

// Summarize loads rows into a throwaway in-memory DuckDB database and
// aggregates them. Nothing is written to disk.
func Summarize(ctx context.Context, rows []api.ReportRow) (*Summary, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE report_rows (
			date VARCHAR NOT NULL,
			source VARCHAR NOT NULL,
			visitors BIGINT NOT NULL,
			conversions BIGINT NOT NULL
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	if err := insertRows(ctx, db, rows); err != nil {
		return nil, err
	}

	summary := &Summary{Rows: len(rows), Sources: []SourceTotal{}}

	sourceRows, err := db.QueryContext(ctx, `
		SELECT source,
		       CAST(SUM(visitors) AS BIGINT) AS visitors,
		       CAST(SUM(conversions) AS BIGINT) AS conversions,
		       COUNT(DISTINCT date) AS days
		FROM report_rows
		GROUP BY source
		ORDER BY visitors DESC, source ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sources: %w", err)
	}
	defer sourceRows.Close()

	for sourceRows.Next() {
		var total SourceTotal
		if err := sourceRows.Scan(&total.Source, &total.Visitors, &total.Conversions, &total.Days); err != nil {
			return nil, fmt.Errorf("failed to scan source total: %w", err)
		}
		summary.Sources = append(summary.Sources, total)
	}
	if err := sourceRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source totals: %w", err)
	}

	err = db.QueryRowContext(ctx, `
		SELECT CAST(COALESCE(SUM(visitors), 0) AS BIGINT),
		       CAST(COALESCE(SUM(conversions), 0) AS BIGINT),
		       COUNT(DISTINCT date)
		FROM report_rows
	`).Scan(&summary.Visitors, &summary.Conversions, &summary.Days)
	if err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}

	return summary, nil
}

func insertRows(ctx context.Context, db *sql.DB, rows []api.ReportRow) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_rows (date, source, visitors, conversions)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.Date, row.Source, int64(row.Visitors), int64(row.Conversions)); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	return tx.Commit()
}
