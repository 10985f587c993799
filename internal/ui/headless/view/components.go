package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"

	"modpack-launcher/internal/runstatus"
	"modpack-launcher/internal/ui/health"
	"modpack-launcher/internal/ui/headless/theme"
)

const (
	minComponentWidth = 1
	scrollbarMinThumb = 0
)

// RenderStatus colours a status headline: failures red, startup phases
// yellow, ready green.
func RenderStatus(status string) string {
	key := runstatus.Key(status)
	switch {
	case key == "":
		return theme.StatusIdleStyle.Render("-")
	case key == runstatus.KeyFailed || strings.Contains(key, "failed") || strings.HasPrefix(key, "error"):
		return theme.StatusErrorStyle.Render(status)
	case runstatus.IsBusy(status):
		return theme.StatusBusyStyle.Render(status)
	case key == runstatus.KeyReady:
		return theme.StatusReadyStyle.Render(status)
	default:
		return theme.StatusIdleStyle.Render(status)
	}
}

func RenderActionButton(a Action, state *State, rt Runtime) string {
	label := a.String()
	focused := state.Focus == int(a)
	hovered := state.HoverZone == zoneAction(a)

	var out string
	switch {
	case busy(a, rt):
		style := theme.ButtonStyle
		if focused {
			style = theme.ButtonFocusedStyle
		}
		out = style.Render(RainbowText(busyLabels[a], state.AnimPhase))
	case a == ActionUpdate && rt.Ready && rt.Snapshot.UpToDate():
		out = theme.UpToDateStyle.Render("Up to date!")
	case !Enabled(a, rt):
		switch {
		case focused:
			out = theme.ButtonDisabledFocusedStyle.Render(label)
		case hovered:
			out = theme.ButtonDisabledHoverStyle.Render(label)
		default:
			out = theme.ButtonDisabledStyle.Render(label)
		}
	case focused:
		out = theme.ButtonFocusedStyle.Render(label)
	case hovered:
		out = theme.ButtonHoverStyle.Render(label)
	default:
		out = theme.ButtonStyle.Render(label)
	}
	return zone.Mark(zoneAction(a), out)
}

func RenderActionsRow(segments []string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = minComponentWidth
	}
	lines := make([]string, 0, len(segments))
	rowParts := make([]string, 0, len(segments))
	joinRow := func(parts []string) string {
		if len(parts) == 0 {
			return ""
		}
		row := parts[0]
		for i := 1; i < len(parts); i++ {
			row = lipgloss.JoinHorizontal(lipgloss.Top, row, " ", parts[i])
		}
		return row
	}
	for _, seg := range segments {
		if len(rowParts) == 0 {
			rowParts = append(rowParts, seg)
			continue
		}
		candidateParts := append(append([]string(nil), rowParts...), seg)
		candidate := joinRow(candidateParts)
		if lipgloss.Width(candidate) <= maxWidth {
			rowParts = candidateParts
			continue
		}
		lines = append(lines, joinRow(rowParts))
		rowParts = []string{seg}
	}
	if len(rowParts) > 0 {
		lines = append(lines, joinRow(rowParts))
	}
	return strings.Join(lines, "\n")
}

func InstallDotStyle(kind health.Kind) (string, lipgloss.Style) {
	dot := "●"
	switch kind {
	case health.Active:
		return dot, theme.StatusReadyStyle
	case health.Warn:
		return dot, theme.StatusWarnStyle
	case health.Pending:
		return dot, theme.StatusBusyStyle
	default:
		return dot, theme.StatusErrorStyle
	}
}

func RainbowText(value string, phase int) string {
	var b strings.Builder
	for i, r := range value {
		position := float64(i)/2.0 - float64(phase)*0.4
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.RainbowColorAt(position)))
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}

func WithScrollBar(content string, width int, height int, percent float64) string {
	if height <= 0 {
		return content
	}
	width = max(width, minComponentWidth)
	lines := strings.Split(content, "\n")
	if len(lines) < height {
		pad := make([]string, 0, height-len(lines))
		for range height - len(lines) {
			pad = append(pad, "")
		}
		lines = append(lines, pad...)
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	thumb := int(percent * float64(height-1))
	thumb = max(thumb, scrollbarMinThumb)
	if thumb >= height {
		thumb = height - 1
	}
	barInactive := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("┊")
	barActive := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Render("▯")

	out := make([]string, 0, height)
	for i := range height {
		bar := barInactive
		if i == thumb {
			bar = barActive
		}
		text := ansi.Cut(lines[i], 0, width)
		if pad := width - ansi.StringWidth(text); pad > 0 {
			text += strings.Repeat(" ", pad)
		}
		out = append(out, text+" "+bar)
	}
	return strings.Join(out, "\n")
}
