//go:build !headless

package gui

import (
	"image/color"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2/widget"
	"github.com/charmbracelet/x/ansi"

	"modpack-launcher/internal/logging"
)

const (
	maxDiagnosticEvents = 1000
	diagTimeWidth       = len("15:04:05")
)

var (
	diagTimeColor  = color.NRGBA{R: 130, G: 130, B: 130, A: 255}
	diagDebugColor = color.NRGBA{R: 150, G: 150, B: 150, A: 255}
	diagInfoColor  = color.NRGBA{R: 120, G: 190, B: 255, A: 255}
	diagWarnColor  = color.NRGBA{R: 219, G: 167, B: 74, A: 255}
	diagErrorColor = color.NRGBA{R: 220, G: 84, B: 84, A: 255}
)

// diagnosticLog holds the most recent logger events shown in the
// diagnostics window, oldest first.
type diagnosticLog struct {
	events []logging.Event
}

func (d *diagnosticLog) add(event logging.Event) {
	d.events = append(d.events, event)
	if over := len(d.events) - maxDiagnosticEvents; over > 0 {
		d.events = append([]logging.Event(nil), d.events[over:]...)
	}
}

func (d *diagnosticLog) clear() {
	d.events = nil
}

func (d *diagnosticLog) rows(columns int) []widget.TextGridRow {
	rows := make([]widget.TextGridRow, 0, len(d.events))
	for _, event := range d.events {
		rows = append(rows, eventRows(event, columns)...)
	}
	return rows
}

func (d *diagnosticLog) plainText() string {
	var b strings.Builder
	for _, event := range d.events {
		b.WriteString(logging.FormatEventLine(event))
	}
	return b.String()
}

// eventRows renders one event as grid rows wrapped to columns. The clock is
// dimmed and the rest takes the colour of the level.
func eventRows(event logging.Event, columns int) []widget.TextGridRow {
	line := strings.TrimRight(logging.FormatEventLine(event), "\n")
	if columns > 1 {
		line = ansi.Wrap(line, columns, "")
	}
	levelStyle := &widget.CustomTextGridStyle{FGColor: levelColor(event.Level)}
	timeStyle := &widget.CustomTextGridStyle{FGColor: diagTimeColor}

	var rows []widget.TextGridRow
	for i, text := range strings.Split(line, "\n") {
		row := widget.TextGridRow{Cells: make([]widget.TextGridCell, 0, len(text))}
		col := 0
		for _, r := range text {
			style := widget.TextGridStyle(levelStyle)
			if i == 0 && col < diagTimeWidth {
				style = timeStyle
			}
			row.Cells = append(row.Cells, widget.TextGridCell{Rune: r, Style: style})
			col++
		}
		rows = append(rows, row)
	}
	return rows
}

func levelColor(level slog.Level) color.NRGBA {
	switch {
	case level <= slog.LevelDebug:
		return diagDebugColor
	case level <= slog.LevelInfo:
		return diagInfoColor
	case level <= slog.LevelWarn:
		return diagWarnColor
	default:
		return diagErrorColor
	}
}
