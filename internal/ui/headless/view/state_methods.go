package view

import (
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/ui/headless/theme"
)

const (
	DefaultNonLogLayoutReserveMin = 20
	DefaultMinLogPanelHeight      = 8
	ConfirmQuitChoiceCancel       = 0
)

const (
	minPageWidth = 24
)

const (
	logPanelHorizontalInset = 8
	minViewportDimension    = 1
	minLogViewportWidth     = 20
	logViewportHeightOffset = 3
	minLogViewportHeight    = 3
	panelFrameOverhead      = 4
	filePickerHeightOffset  = 14
	minFilePickerHeight     = 8
	borderRows              = 2
	sectionGapRows          = 2
	logTimeLayout           = "15:04:05"
)

func (s State) FocusCount() int {
	return int(actionCount)
}

func (s State) FocusedAction() Action {
	return Action(s.Focus)
}

func (s State) ContentWidth() int {
	width := max(s.Width, 1)
	// Some Windows terminals wrap when a styled line lands exactly on the
	// reported last column; keep one-column headroom to avoid right-edge drift.
	if runtime.GOOS == "windows" && width > 1 {
		width--
	}
	return width
}

func (s State) PageWidth() int {
	return max(s.ContentWidth()-theme.PanelStyle.GetHorizontalFrameSize(), minPageWidth)
}

func (s State) LogPanelHeight(nonLogLayoutReserveMin int, minLogPanelHeight int) int {
	available := s.Height - nonLogLayoutReserveMin
	if available < minLogPanelHeight {
		return minLogPanelHeight
	}
	return available
}

// SetLogEntries renders entries, newest first, into the log viewport.
func (s *State) SetLogEntries(entries []launcher.Entry) {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, theme.LogTimeStyle.Render(entry.Time.Format(logTimeLayout))+" "+entry.Text)
	}
	s.LogText = strings.Join(lines, "\n")
	s.SetLogViewportContent()
	if s.FollowLogs {
		s.LogView.GotoTop()
	}
}

func (s *State) SetLogViewportContent() {
	width := max(s.LogView.Width, minViewportDimension)
	s.LogView.SetContent(wrapLogText(s.LogText, width))
}

func (s *State) ResizeLogs(nonLogLayoutReserveMin int, minLogPanelHeight int) {
	w := max(s.PageWidth()-logPanelHorizontalInset, minLogViewportWidth)
	h := max(s.LogPanelHeight(nonLogLayoutReserveMin, minLogPanelHeight)-logViewportHeightOffset, minLogViewportHeight)
	s.LogView.Width = w
	s.LogView.Height = h
	s.SetLogViewportContent()
}

func (s *State) FitLogViewportHeight(nonLogSections []string, nonLogLayoutReserveMin int, minLogPanelHeight int) {
	if s.Height <= 0 {
		return
	}
	desired := max(s.LogPanelHeight(nonLogLayoutReserveMin, minLogPanelHeight)-logViewportHeightOffset, minLogViewportHeight)
	nonLogHeight := lipgloss.Height(strings.Join(nonLogSections, "\n\n"))
	availablePanel := s.Height - borderRows - nonLogHeight - sectionGapRows
	maxLogHeight := max(availablePanel-panelFrameOverhead, minLogViewportHeight)
	if desired > maxLogHeight {
		desired = maxLogHeight
	}
	s.LogView.Height = desired
}

func (s *State) ResizeFilePicker() {
	h := max(s.Height-filePickerHeightOffset, minFilePickerHeight)
	s.FilePicker.SetHeight(h)
}

func wrapLogText(text string, width int) string {
	if width <= 0 || text == "" {
		return text
	}
	return ansi.Wrap(text, width, "")
}
