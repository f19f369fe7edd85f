package reminder

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Canonical column labels the rest of the pipeline keys on. Matched
// columns are renamed to these.
const (
	ColPaymentMode    = "Mode of Payment"
	ColPaymentDueDate = "Payment Due [Date]"
)

var requiredColumns = []string{ColPaymentMode, ColPaymentDueDate}

// ResolveColumns maps the two required logical fields onto the table's
// real column names and renames them in place. Matching tiers: exact,
// all-words, then field-specific keywords. The keyword tier is loose on
// purpose; tightening it would reject sheets the system handles today.
// A physical column can serve only one field, so if both fields resolve
// to the same column the second one comes back as missing.
func ResolveColumns(t *Table) (map[string]string, error) {
	mapping := make(map[string]string, len(requiredColumns))
	for _, want := range requiredColumns {
		found := findColumn(t.Columns, want)
		if found == "" {
			log.Error().Strs("available", t.Columns).Msgf("Required column %q not found", want)
			return nil, &MissingColumnError{Field: want, Available: append([]string(nil), t.Columns...)}
		}
		log.Debug().Msgf("Mapped %q -> %q", want, found)
		mapping[want] = found
	}
	for _, want := range requiredColumns {
		t.Rename(mapping[want], want)
	}
	for _, want := range requiredColumns {
		if t.ColumnIndex(want) < 0 {
			log.Error().Strs("available", t.Columns).Msgf("Column %q lost during renaming", want)
			return nil, &MissingColumnError{Field: want, Available: append([]string(nil), t.Columns...)}
		}
	}
	return mapping, nil
}

func findColumn(columns []string, want string) string {
	target := strings.ToLower(strings.TrimSpace(want))

	// Exact match after whitespace normalization.
	for _, c := range columns {
		if strings.ToLower(collapseSpace(c)) == target {
			return c
		}
	}

	// Column contains every word of the label, brackets ignored.
	for _, c := range columns {
		clean := strings.ToLower(stripBrackets(collapseSpace(c)))
		if containsAllWords(clean, target) {
			return c
		}
	}

	// Keyword heuristics, per field. First column matching any variant
	// wins, in column order.
	switch target {
	case "mode of payment":
		for _, c := range columns {
			lc := strings.ToLower(collapseSpace(c))
			if containsAny(lc, "payment", "pay", "mode") &&
				!containsAny(lc, "amount", "due", "reference", "related") {
				return c
			}
		}
	case "payment due [date]":
		for _, c := range columns {
			lc := strings.ToLower(collapseSpace(c))
			switch {
			case strings.Contains(lc, "payment") && strings.Contains(lc, "due") && strings.Contains(lc, "date"):
				return c
			case strings.Contains(lc, "due") && strings.Contains(lc, "date"):
				return c
			case strings.Contains(lc, "payment") && strings.Contains(lc, "date") &&
				!containsAny(lc, "transfer", "created", "create"):
				return c
			}
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
