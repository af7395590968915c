// Package export renders tabular data as downloadable CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// ContentType is the MIME type of CSV exports.
const ContentType = "text/csv; charset=utf-8"

// Write writes headers followed by one record per row. Fields containing
// commas, quotes or line breaks are quoted per RFC 4180.
func Write(w io.Writer, headers []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteMapped writes items through a row-mapping function.
func WriteMapped[T any](w io.Writer, headers []string, items []T, row func(T) []string) error {
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = row(it)
	}
	return Write(w, headers, rows)
}

// Filename returns "<prefix>_YYYY-MM-DD.csv" for now's calendar date.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("2006-01-02"))
}
