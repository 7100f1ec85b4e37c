package engine

// CountRevealed counts face-up cards
func CountRevealed(cards []Card) int {
	count := 0
	for _, c := range cards {
		if c.IsRevealed {
			count++
		}
	}
	return count
}

// FaceDownIndices returns the indices of cards that can still be flipped
func FaceDownIndices(cards []Card) []int {
	var out []int
	for i, c := range cards {
		if !c.IsRevealed {
			out = append(out, i)
		}
	}
	return out
}

// GridPosition converts a card index into a 0-based row and column
func GridPosition(index, columns int) (row, col int) {
	return index / columns, index % columns
}

// IndexAt converts a 0-based row and column into a card index. It returns
// -1 when the cell is outside the grid.
func IndexAt(row, col, rows, columns int) int {
	if row < 0 || col < 0 || row >= rows || col >= columns {
		return -1
	}
	return row*columns + col
}

// PairLocations groups card indices by pair value
func PairLocations(cards []Card) map[int][]int {
	out := make(map[int][]int)
	for i, c := range cards {
		out[c.Value] = append(out[c.Value], i)
	}
	return out
}
