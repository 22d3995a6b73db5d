package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// ReadAnyMaps picks a reader by extension and returns the rows as map[header]value.
// headerRow is 1-based; 0 detects it from the first rows.
func ReadAnyMaps(r io.Reader, filename string, headerRow int) ([]map[string]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx":
		rows, err = readXLSX(r)
	case ".xls":
		rows, err = readXLS(r)
	case ".csv", ".txt":
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("unsupported file: %s", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if headerRow <= 0 {
		headerRow = detectHeaderRow(rows)
	}
	h := pickHeader(rows, headerRow)
	return rowsToMaps(rows, h, headerRow), nil
}

// detectHeaderRow: the first of the top rows with at least two non-numeric cells.
func detectHeaderRow(rows [][]string) int {
	for i := 0; i < len(rows) && i < 20; i++ {
		text := 0
		for _, c := range rows[i] {
			c = strings.TrimSpace(c)
			if c != "" && !rxNumeric.MatchString(c) {
				text++
			}
		}
		if text >= 2 {
			return i + 1
		}
	}
	return 1
}

var (
	rxNumeric = regexp.MustCompile(`^[\d\s.,\-]+$`)
	rxSpaces  = regexp.MustCompile(`\s+`)
)

// normalizeCell trims a cell, folds non-breaking spaces and collapses whitespace runs.
func normalizeCell(s string) string {
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ", "\r", " ", "\n", " ").Replace(s)
	return rxSpaces.ReplaceAllString(strings.TrimSpace(s), " ")
}

// pickHeader takes the header row and names empty cells "Column N".
func pickHeader(rows [][]string, headerRow int) []string {
	idx := headerRow - 1
	if idx < 0 || idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, v := range h {
		v = normalizeCell(v)
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		if n := seen[v]; n > 0 {
			seen[v]++
			v = fmt.Sprintf("%s (%d)", v, n+1)
		} else {
			seen[v] = 1
		}
		out[i] = v
	}
	return out
}

// rowsToMaps converts rows below the header to maps, skipping fully empty rows.
func rowsToMaps(rows [][]string, headers []string, headerRow int) []map[string]string {
	var out []map[string]string
	for r := headerRow; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c := range headers {
			var v string
			if c < len(rec) {
				v = normalizeCell(rec[c])
			}
			if v != "" {
				empty = false
			}
			m[headers[c]] = v
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}
