package main

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

// cellText draws one tile: [A] correct, (A) present, ·a· absent, _ empty.
func cellText(c game.Cell) string {
	l := string(unicode.ToUpper(c.Letter))
	switch c.State {
	case game.TileCorrect:
		return "[" + l + "]"
	case game.TilePresent:
		return "(" + l + ")"
	case game.TileAbsent:
		return " " + strings.ToLower(l) + " "
	case game.TileFilled:
		return " " + l + " "
	default:
		return " _ "
	}
}

func renderBoard(w io.Writer, snap game.Snapshot) {
	for _, row := range snap.Cells {
		parts := make([]string, len(row))
		for i, c := range row {
			parts[i] = cellText(c)
		}
		fmt.Fprintln(w, strings.Join(parts, ""))
	}
	if snap.Message != "" {
		fmt.Fprintln(w, snap.Message)
	}
}

func renderMarks(marks []game.Mark) string {
	var b strings.Builder
	for _, m := range marks {
		switch m {
		case game.MarkCorrect:
			b.WriteString("🟩")
		case game.MarkPresent:
			b.WriteString("🟨")
		default:
			b.WriteString("⬛")
		}
	}
	return b.String()
}
