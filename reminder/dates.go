package reminder

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Layouts tried against the due-date column, covering the day-month-year
// and month-day-year forms seen across the source sheets. Non-padded
// verbs accept both "2" and "02".
var dateLayouts = []string{
	"2-Jan-06",
	"2-Jan-2006",
	"2/1/06",
	"2/1/2006",
	"2006-1-2",
	"1/2/2006",
	"2.1.2006",
	"2006/1/2",
	"2-1-06",
	"2-1-2006",
}

// Extra layouts only the permissive fallback tries.
var permissiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02 Jan 2006",
	"2 Jan 06",
}

// NormalizeDates coerces the due-date column to calendar dates, dropping
// rows whose value cannot be parsed. The returned slice is aligned with
// the surviving t.Rows.
func NormalizeDates(t *Table) []time.Time {
	values := t.Column(ColPaymentDueDate)

	parsed, n := bestLayoutParse(values)
	if n*2 < len(values) {
		log.Debug().Msgf("Best layout parsed %d/%d dates, trying permissive parse", n, len(values))
		parsed = permissiveParse(values)
	}

	kept := make([][]string, 0, len(t.Rows))
	dates := make([]time.Time, 0, len(t.Rows))
	dropped := 0
	for i, row := range t.Rows {
		if parsed[i].IsZero() {
			dropped++
			continue
		}
		kept = append(kept, row)
		dates = append(dates, parsed[i])
	}
	if dropped > 0 {
		log.Info().Msgf("Dropped %d rows with unparseable due dates (%d kept)", dropped, len(kept))
	}
	t.Rows = kept
	return dates
}

// bestLayoutParse runs every layout over the whole column and keeps the
// one that parses the most values. A layout parsing strictly more than
// the current best wins; a full parse short-circuits the search.
func bestLayoutParse(values []string) ([]time.Time, int) {
	best := make([]time.Time, len(values))
	bestCount := 0
	for _, layout := range dateLayouts {
		parsed, n := parseColumn(values, layout)
		if n > bestCount {
			best, bestCount = parsed, n
			log.Debug().Msgf("Layout %q parsed %d/%d dates", layout, n, len(values))
			if bestCount == len(values) {
				break
			}
		}
	}
	return best, bestCount
}

// parseColumn applies a single layout to every value, returning the
// results and how many parsed.
func parseColumn(values []string, layout string) ([]time.Time, int) {
	out := make([]time.Time, len(values))
	n := 0
	for i, v := range values {
		ts, err := time.Parse(layout, strings.TrimSpace(v))
		if err != nil {
			continue
		}
		out[i] = ts
		n++
	}
	return out, n
}

// permissiveParse is the last resort: per value, every known layout,
// then Excel date serials.
func permissiveParse(values []string) []time.Time {
	out := make([]time.Time, len(values))
	for i, v := range values {
		out[i] = parseAnyDate(strings.TrimSpace(v))
	}
	return out
}

func parseAnyDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts
		}
	}
	for _, layout := range permissiveLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts
		}
	}
	// Cells formatted as General come through as raw date serials.
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 {
		if ts, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return ts
		}
	}
	return time.Time{}
}
