package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FaceDown is drawn in place of a hidden card
const FaceDown = "??"

// RenderBoard draws the grid as text, rows and columns numbered from 0.
// Face-down cards show as [ ?? ] and face-up cards show their symbol.
func RenderBoard(state *GameState) string {
	if state == nil || state.Columns == 0 {
		return ""
	}

	width := utf8.RuneCountInString(FaceDown)
	for _, c := range state.Cards {
		if n := utf8.RuneCountInString(string(c.Image)); c.IsRevealed && n > width {
			width = n
		}
	}

	lines := make([]string, 0, state.Rows+1)

	var header strings.Builder
	header.WriteString("  ")
	for col := 0; col < state.Columns; col++ {
		fmt.Fprintf(&header, " %-*s", width+4, "  "+strconv.Itoa(col))
	}
	lines = append(lines, strings.TrimRight(header.String(), " "))

	for row := 0; row < state.Rows; row++ {
		var line strings.Builder
		fmt.Fprintf(&line, "%2d", row)
		for col := 0; col < state.Columns; col++ {
			face := FaceDown
			if i := IndexAt(row, col, state.Rows, state.Columns); i < len(state.Cards) && state.Cards[i].IsRevealed {
				face = string(state.Cards[i].Image)
			}
			fmt.Fprintf(&line, " [ %-*s ]", width, face)
		}
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}
