package table

// Position addresses a single cell by row and column index.
type Position struct {
	Row int
	Col int
}

// MissingPositions returns every null cell of t in row-major order.
func MissingPositions(t *Table) []Position {
	var out []Position
	for r := 0; r < t.Rows(); r++ {
		for c, col := range t.cols {
			if col.IsNull(r) {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// CountMissing returns the number of null cells in t.
func CountMissing(t *Table) int {
	n := 0
	for _, col := range t.cols {
		for r := 0; r < col.Len(); r++ {
			if col.IsNull(r) {
				n++
			}
		}
	}
	return n
}
