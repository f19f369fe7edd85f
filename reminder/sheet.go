package reminder

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Target labels scored against candidate header rows. The sheet layout
// is not under our control, so the header can sit anywhere in the first
// few rows and the labels rarely match exactly.
var headerTargets = []string{"mode of payment", "payment due [date]"}

const (
	headerScanRows     = 6
	headerFallbackRows = 5
)

// ParseWorkbook opens an xlsx workbook, locates its header row and
// returns the table below it together with the zero-based header index.
func ParseWorkbook(data []byte) (*Table, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	if header := locateHeader(rows); header >= 0 {
		if t := tableAt(rows, header); t != nil {
			log.Debug().Strs("columns", t.Columns).Msgf("Selected header row %d", header)
			return t, header, nil
		}
	}

	// No row scored: try the first few rows as headers outright. Unlike
	// a scored header, a fallback guess with nothing under it proves
	// nothing, so it must carry data.
	for r := 0; r < headerFallbackRows && r < len(rows); r++ {
		if t := tableAt(rows, r); t != nil && t.Len() > 0 {
			log.Debug().Msgf("Using header row %d as fallback", r)
			return t, r, nil
		}
	}
	return nil, 0, ErrNoHeader
}

// locateHeader scores the first few rows against the target labels and
// returns the best-scoring row index, or -1 when nothing matched. Ties
// go to the earliest row in scan order.
func locateHeader(rows [][]string) int {
	limit := headerScanRows
	if len(rows) < limit {
		limit = len(rows)
	}

	best, bestScore := -1, 0
	for r := 0; r < limit; r++ {
		score := scoreHeaderRow(rows[r])
		if score > 0 {
			log.Debug().Msgf("Row %d has %d header matches", r, score)
		}
		if score > bestScore {
			best, bestScore = r, score
		}
	}
	return best
}

// scoreHeaderRow awards 2 points for an exact label match (with or
// without spaces and brackets) and 1 point when a cell merely contains
// every word of a label.
func scoreHeaderRow(cells []string) int {
	score := 0
	for _, cell := range cells {
		clean := strings.ToLower(collapseSpace(cell))
		if clean == "" {
			continue
		}
		for _, target := range headerTargets {
			switch {
			case squash(clean) == squash(target):
				score += 2
			case clean == target:
				score += 2
			case containsAllWords(clean, target):
				score++
			}
		}
	}
	return score
}

// tableAt materializes the rows below header as a Table, or nil when
// that would yield no columns. The data region may be empty; a sheet
// holding nothing but its header still parses, there is just nothing
// due in it.
func tableAt(rows [][]string, header int) *Table {
	if header >= len(rows) {
		return nil
	}
	names := normalizeColumns(rows[header])
	if len(names) == 0 {
		return nil
	}
	data := rows[header+1:]

	width := len(names)
	out := make([][]string, 0, len(data))
	for _, r := range data {
		row := make([]string, width)
		copy(row, r)
		out = append(out, row)
	}
	return &Table{Columns: names, Rows: out}
}

// normalizeColumns trims and collapses whitespace (including newlines
// and non-breaking spaces) in every name, then de-duplicates repeats
// with a numeric suffix so column names stay unique.
func normalizeColumns(cells []string) []string {
	names := make([]string, 0, len(cells))
	seen := make(map[string]int, len(cells))
	for _, c := range cells {
		name := collapseSpace(c)
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		names = append(names, name)
	}
	return names
}

// collapseSpace trims and folds any run of whitespace to a single space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// squash strips spaces and brackets for the loosest equality tier.
func squash(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	return stripBrackets(s)
}

func stripBrackets(s string) string {
	s = strings.ReplaceAll(s, "[", "")
	return strings.ReplaceAll(s, "]", "")
}

// containsAllWords reports whether s contains every whitespace-delimited
// word of target (brackets stripped from the target first).
func containsAllWords(s, target string) bool {
	for _, w := range strings.Fields(stripBrackets(target)) {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}
