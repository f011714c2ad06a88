package grid

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

var (
	// SuccessColor badge-success and status-active.
	SuccessColor tcell.Color = tcell.ColorGreen

	// ErrorColor badge-error.
	ErrorColor tcell.Color = tcell.ColorRed

	// WarningColor badge-warning.
	WarningColor tcell.Color = tcell.ColorYellow

	// InfoColor badge-info.
	InfoColor tcell.Color = tcell.ColorDodgerBlue

	// InactiveColor badge-inactive and status-inactive.
	InactiveColor tcell.Color = tcell.ColorGray

	// StdColor plain cells.
	StdColor tcell.Color = tcell.ColorWhite

	// LinkColor link cells.
	LinkColor tcell.Color = tcell.ColorAqua

	// ButtonColor button cells.
	ButtonColor tcell.Color = tcell.ColorFuchsia
)

var classColors = map[string]tcell.Color{
	"badge-success":   SuccessColor,
	"badge-error":     ErrorColor,
	"badge-warning":   WarningColor,
	"badge-info":      InfoColor,
	"badge-inactive":  InactiveColor,
	"status-active":   SuccessColor,
	"status-inactive": InactiveColor,
	"row-success":     SuccessColor,
	"row-warning":     WarningColor,
	"row-error":       ErrorColor,
}

// ClassColor resolves a space separated class list to a color. The first
// known class wins.
func ClassColor(classes string) (tcell.Color, bool) {
	for _, c := range strings.Fields(classes) {
		if col, ok := classColors[c]; ok {
			return col, true
		}
	}

	return tcell.ColorDefault, false
}

// CellColor returns the foreground for a rendered cell.
func CellColor(c Cell) tcell.Color {
	if col, ok := ClassColor(c.Class); ok {
		return col
	}
	switch c.Kind {
	case CellLink:
		return LinkColor
	case CellButton:
		return ButtonColor
	case CellBadge:
		return InfoColor
	default:
		return StdColor
	}
}

// RowColor returns the color implied by a row class, if any.
func RowColor(class string) (tcell.Color, bool) {
	return ClassColor(class)
}
