// Package export writes complete entity lists to CSV, Parquet or JSON files
// through DuckDB.
package export

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/secacademy/academy-admin/internal/listing"
)

// Format is an output file format
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatJSON    Format = "json"
)

// ErrEmpty is returned when there are no rows to write
var ErrEmpty = errors.New("nothing to export")

// FormatFromPath picks the format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".parquet":
		return FormatParquet, nil
	case ".json", ".ndjson", ".jsonl":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use .csv, .parquet or .json)", filepath.Ext(path))
	}
}

// Collect walks c from its current page to the last one and returns every row.
// progress, if set, is called after each page.
func Collect[T any](ctx context.Context, c *listing.Controller[T], progress func(listing.State)) ([]T, error) {
	if !c.Loaded() {
		if err := c.Run(ctx, c.Load()); err != nil {
			return nil, err
		}
	}
	for c.State().HasPrev() {
		p, _ := c.PrevPage()
		if err := c.Run(ctx, p); err != nil {
			return nil, err
		}
	}

	var rows []T
	for {
		rows = append(rows, c.Rows()...)
		if progress != nil {
			progress(c.State())
		}
		p, ok := c.NextPage()
		if !ok {
			return rows, nil
		}
		if err := c.Run(ctx, p); err != nil {
			return nil, err
		}
	}
}

// Write stores rows at path in the format implied by its extension. Rows are
// staged as newline-delimited JSON and converted with DuckDB's read_json.
func Write[T any](ctx context.Context, database *sql.DB, rows []T, path string) error {
	if len(rows) == 0 {
		return ErrEmpty
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	staging, err := os.CreateTemp("", "academy-export-*.ndjson")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	defer os.Remove(staging.Name())

	w := bufio.NewWriter(staging)
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			staging.Close()
			return fmt.Errorf("failed to stage row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		staging.Close()
		return fmt.Errorf("failed to stage rows: %w", err)
	}
	if err := staging.Close(); err != nil {
		return fmt.Errorf("failed to stage rows: %w", err)
	}

	query := fmt.Sprintf(`
		COPY (
			SELECT * FROM read_json(%s,
				format = 'newline_delimited',
				union_by_name = true
			)
		) TO %s (%s)
	`, quote(staging.Name()), quote(path), copyOptions(format))

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := database.ExecContext(queryCtx, query); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func copyOptions(f Format) string {
	switch f {
	case FormatParquet:
		return "FORMAT PARQUET"
	case FormatJSON:
		return "FORMAT JSON"
	default:
		return "FORMAT CSV, HEADER"
	}
}

// quote renders s as a SQL string literal; COPY does not take bind parameters
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
