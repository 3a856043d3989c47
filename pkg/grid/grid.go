package grid

// Index returns the row-major flattened offset of (row, col) within a grid
// that has the given number of columns.
func Index(row, col, cols int) int {
	return row*cols + col
}

// Coords is the inverse of Index: it maps a flattened offset back to its
// (row, col) position within a grid that has the given number of columns.
func Coords(index, cols int) (row, col int) {
	return index / cols, index % cols
}
