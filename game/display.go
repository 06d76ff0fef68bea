package game

import (
	"fmt"
	"strings"

	"github.com/domino14/blobwar/positions"
)

const (
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

var playerNames = [2]string{"red", "blue"}

// PlayerName is "red" for the first player and "blue" for the second.
func PlayerName(idx int) string {
	return playerNames[idx]
}

// ToDisplayText renders the board for a terminal. Columns are numbered
// across the top and rows down the side. Without color, holes are drawn
// as '#' so they cannot be confused with red pieces.
func (c Configuration) ToDisplayText(color bool) string {
	var sb strings.Builder
	sb.WriteString("\n  01234567\n")
	sb.WriteString(" +--------+\n")
	for i := range positions.NumCells {
		p := positions.Position(i)
		if i%positions.Dim == 0 {
			fmt.Fprintf(&sb, "%d|", i/positions.Dim)
		}
		switch {
		case c.board.Holes.Contains(p):
			if color {
				sb.WriteByte('x')
			} else {
				sb.WriteByte('#')
			}
		case c.Blobs[0].Contains(p):
			if color {
				sb.WriteString(colorRed + "x" + colorReset)
			} else {
				sb.WriteByte('x')
			}
		case c.Blobs[1].Contains(p):
			if color {
				sb.WriteString(colorCyan + "o" + colorReset)
			} else {
				sb.WriteByte('o')
			}
		default:
			sb.WriteByte(' ')
		}
		if i%positions.Dim == positions.Dim-1 {
			sb.WriteString("|\n")
		}
	}
	sb.WriteString(" +--------+\n")
	fmt.Fprintf(&sb, "%s %d - %d %s, %s to move\n",
		playerNames[0], c.Blobs[0].Len(), c.Blobs[1].Len(), playerNames[1],
		playerNames[c.PlayerOnTurn()])
	return sb.String()
}
