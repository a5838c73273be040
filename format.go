package main

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// statusf prints a status message to w unless quiet mode is set.
func statusf(w io.Writer, quiet bool, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// Statusf prints a status message to the command's stderr unless --quiet.
func (cc *CLIContext) Statusf(format string, args ...any) {
	statusf(cc.Stderr, cc.Flags.Quiet, format, args...)
}

// formatExpiry renders a session expiry relative to now, e.g.
// "2026-03-01 12:30:00 UTC (in 29m)". The zero time means no session.
func formatExpiry(expiry, now time.Time) string {
	if expiry.IsZero() {
		return "(no session)"
	}

	stamp := expiry.Format("2006-01-02 15:04:05 MST")

	remaining := expiry.Sub(now).Truncate(time.Second)
	if remaining <= 0 {
		return stamp + " (expired)"
	}

	left := remaining.String()
	if strings.HasSuffix(left, "m0s") {
		left = strings.TrimSuffix(left, "0s")
	}

	return fmt.Sprintf("%s (in %s)", stamp, left)
}

// printTable writes aligned columns to w. Rows may be shorter or longer
// than headers; missing cells print empty and extra cells get their own
// column. The last column is not padded.
func printTable(w io.Writer, headers []string, rows [][]string) {
	cols := len(headers)
	for _, row := range rows {
		cols = max(cols, len(row))
	}

	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

// printRow writes one row padded to widths.
func printRow(w io.Writer, cells []string, widths []int) {
	var b strings.Builder

	last := len(widths) - 1

	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}

		if i == last {
			b.WriteString(cell)

			break
		}

		fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
	}

	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
}
