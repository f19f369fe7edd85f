package reminder

// Table is an ordered set of named columns over string cells. Rows are
// padded to the column count, so cell lookups never go out of range.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of a column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the cells of a named column, one per row.
func (t *Table) Column(name string) []string {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// Rename changes a column name in place, leaving the cells untouched.
func (t *Table) Rename(from, to string) {
	if i := t.ColumnIndex(from); i >= 0 {
		t.Columns[i] = to
	}
}
