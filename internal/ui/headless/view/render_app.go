package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"

	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/runstatus"
	"modpack-launcher/internal/ui/health"
	"modpack-launcher/internal/ui/headless/render"
	"modpack-launcher/internal/ui/headless/theme"
)

// Runtime is the read-only launcher state a frame is rendered from.
type Runtime struct {
	BuildVersion string
	// Phase is the startup headline from the runtime controller.
	Phase    string
	Ready    bool
	Snapshot launcher.Snapshot
	Install  []health.Row
	Summary  string
}

// Status is the headline shown next to the actions: the latest backend
// status once one arrived, the startup phase before that.
func (rt Runtime) Status() string {
	if status := strings.TrimSpace(rt.Snapshot.Status); status != "" {
		return status
	}
	return rt.Phase
}

const (
	outerPaneGap               = 2
	frameInnerInset            = 4
	minOverviewLeftContent     = 12
	minOverviewLeftHeight      = 6
	minOverviewRemainingWidth  = 24
	installPaneMinWidth        = 8
	installPaneMinHeight       = 3
	installValueMinWidth       = 10
	installLabelWidth          = 10
	dialogHorizontalInset      = 8
	quitDialogWidth            = 72
	errorDialogWidth           = 78
	filePickerDialogMaxWidth   = 96
	leftFrameExtraWidth        = 6
	leftFrameMinWidth          = 24
	leftFramePreferredWidth    = 56
	rightPaneMinWidth          = 32
	sideBySideMinTotalWidth    = 84
	paneInnerMinWidth          = 1
	defaultOverviewPaneHeight  = 8
	largeOverviewPaneHeight    = 10
	largeOverviewHeightCutover = 36
)

func RenderApp(state *State, rt Runtime) string {
	if state.Width == 0 {
		return "initializing..."
	}

	base := renderBase(state, rt)
	if state.FilePickerOpen {
		return renderModalOverlay(state, base, renderFilePickerDialog(state))
	}

	if state.ErrorModalText != "" {
		return renderModalOverlay(state, base, renderErrorDialog(state))
	}

	if state.ConfirmQuit {
		return renderModalOverlay(state, base, renderQuitConfirmDialog(state))
	}

	return base
}

func renderBase(state *State, rt Runtime) string {
	header := theme.TitleStyle.Render("Starbound Modpack Launcher (" + rt.BuildVersion + ")")
	if rt.Phase != "" && runstatus.Key(rt.Phase) != runstatus.KeyReady {
		header += "  " + RenderStatus(rt.Phase)
	}
	content := renderOverview(state, rt)
	helpText := state.HelpView.View(state.Keys)

	state.FitLogViewportHeight([]string{header, content, helpText}, DefaultNonLogLayoutReserveMin, DefaultMinLogPanelHeight)
	sections := []string{header, content, renderLogPanel(state, rt), theme.HelpStyle.Render(helpText)}
	root := strings.Join(sections, "\n\n")
	return renderFrame(state, rt, root, state.ContentWidth())
}

func renderFrame(state *State, rt Runtime, content string, width int) string {
	return render.Frame(content, width, rt.Snapshot.Flags.Any(), state.AnimPhase, theme.PanelStyle)
}

func renderPlainFrame(content string, width int) string {
	return render.Frame(content, width, false, 0, theme.PanelStyle)
}

func renderOverview(state *State, rt Runtime) string {
	total := state.PageWidth()
	gap := outerPaneGap
	ResizePaneViewports(state, rt)

	leftWidth, rightWidth, stacked := overviewPaneLayout(total, overviewLeftFrameWidth(state, rt, total))
	statusLine := "Status: " + RenderStatus(rt.Status())
	leftRenderWidth := leftWidth
	if stacked {
		leftRenderWidth = total
	}

	leftContentWidth := leftRenderWidth - frameInnerInset
	if leftContentWidth <= 0 {
		leftContentWidth = state.LeftView.Width
	}
	if leftContentWidth > outerPaneGap {
		leftContentWidth -= outerPaneGap
	}
	leftContentWidth = max(leftContentWidth, minOverviewLeftContent)
	state.LeftView.Width = leftContentWidth

	actionsLine := renderActionsRowState(state, rt, leftContentWidth)
	requiredLeftHeight := max(1+outerPaneGap+lipgloss.Height(actionsLine), minOverviewLeftHeight)
	if state.LeftView.Height < requiredLeftHeight {
		state.LeftView.Height = requiredLeftHeight
	}
	if !stacked && state.RightView.Height < requiredLeftHeight {
		state.RightView.Height = requiredLeftHeight
	}

	state.LeftView.SetContent(strings.Join([]string{statusLine, actionsLine}, "\n\n"))
	left := renderPlainFrame(state.LeftView.View(), leftRenderWidth)

	if stacked {
		state.RightView.SetContent(renderInstallPanelBody(rt, total-frameInnerInset, state.RightView.Height))
		right := renderPlainFrame(state.RightView.View(), rightWidth)
		return lipgloss.NewStyle().Width(total).Render(left + "\n\n" + right)
	}

	remaining := max(total-lipgloss.Width(left)-gap, minOverviewRemainingWidth)
	state.RightView.SetContent(renderInstallPanelBody(rt, remaining-frameInnerInset, state.RightView.Height))
	right := renderPlainFrame(state.RightView.View(), remaining)
	layout := lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Repeat(" ", gap), right)

	return lipgloss.NewStyle().Width(total).Render(layout)
}

func renderActionsRowState(state *State, rt Runtime, maxWidth int) string {
	segments := make([]string, 0, actionCount)
	for a := range actionCount {
		segments = append(segments, RenderActionButton(a, state, rt))
	}
	return RenderActionsRow(segments, maxWidth)
}

func renderInstallPanelBody(rt Runtime, width int, height int) string {
	header := theme.TitleStyle.Render("Install")
	if len(rt.Install) == 0 {
		width = max(width, installPaneMinWidth)
		height = max(height, installPaneMinHeight)
		content := lipgloss.NewStyle().Width(width).Height(height - 1).AlignHorizontal(lipgloss.Center).AlignVertical(lipgloss.Center).Foreground(lipgloss.Color("245")).Render("Loading...")
		return header + "\n" + content
	}

	width = max(width, installValueMinWidth)
	lines := make([]string, 0, len(rt.Install)+1)
	var reasons []string
	for _, row := range rt.Install {
		dot, style := InstallDotStyle(row.Kind)
		prefix := style.Render(dot) + " " + fmt.Sprintf("%-*s", installLabelWidth, row.Name+":")
		available := max(width-ansi.StringWidth(prefix), 1)
		lines = append(lines, prefix+render.TruncateDisplayWidth(row.Value, available))
		if row.Reason != "" {
			reasons = append(reasons, row.Reason)
		}
	}
	if rt.Summary != "" {
		lines = append(lines, "", theme.FocusStyle.Render(rt.Summary))
	}
	body := strings.Join(lines, "\n")
	if len(reasons) > 0 {
		body += "\n" + theme.HelpStyle.Render(render.TruncateDisplayWidth(reasons[0], width))
	}
	return header + "\n" + body
}

func renderLogPanel(state *State, rt Runtime) string {
	follow := "ctrl+f latest"
	if state.FollowLogs {
		follow = "following"
	}
	title := theme.TitleStyle.Render("Log")
	toolbar := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", theme.HelpStyle.Render(follow))
	content := state.LogView.View()
	withBar := WithScrollBar(content, state.LogView.Width, state.LogView.Height, state.LogView.ScrollPercent())

	return renderPlainFrame(toolbar+"\n"+withBar, state.PageWidth())
}

func renderQuitConfirmDialog(state *State) string {
	cancelButton := theme.ButtonStyle.Render("Cancel")
	quitButton := theme.ButtonStyle.Render("Quit")
	if state.ConfirmQuitChoice == ConfirmQuitChoiceCancel {
		cancelButton = theme.ButtonFocusedStyle.Render("Cancel")
	} else {
		quitButton = theme.ButtonFocusedStyle.Render("Quit")
	}
	cancelButton = zone.Mark(zoneDialogQuitCancel, cancelButton)
	quitButton = zone.Mark(zoneDialogQuitAccept, quitButton)

	buttonRow := lipgloss.JoinHorizontal(lipgloss.Top, cancelButton, "  ", quitButton)
	dialogWidth := min(state.ContentWidth()-dialogHorizontalInset, quitDialogWidth)
	buttonLine := lipgloss.NewStyle().
		Width(max(dialogWidth-frameInnerInset, 1)).
		AlignHorizontal(lipgloss.Center).
		Render(buttonRow)

	body := strings.Join([]string{
		theme.TitleStyle.Render("Quit while busy?"),
		"An operation is still running and will be interrupted.",
		buttonLine,
		theme.HelpStyle.Render("tab/arrow switch • enter confirms"),
	}, "\n")

	return renderPlainFrame(body, dialogWidth)
}

func renderErrorDialog(state *State) string {
	body := strings.Join([]string{
		theme.ErrorStyle.Render("Error"),
		state.ErrorModalText,
		zone.Mark(zoneDialogErrorClose, theme.HelpStyle.Render("Press Enter or Esc to close")),
	}, "\n")

	return renderPlainFrame(body, min(state.ContentWidth()-dialogHorizontalInset, errorDialogWidth))
}

func renderFilePickerDialog(state *State) string {
	title := theme.TitleStyle.Render("Select Game Install Directory")
	current := theme.HelpStyle.Render(render.TruncateDisplayWidth(state.FilePicker.CurrentDirectory, filePickerDialogMaxWidth-frameInnerInset))
	picker := state.FilePicker.View()
	help := theme.HelpStyle.Render("up/down move • space open • enter select • left/backspace up • esc cancel")
	body := strings.Join([]string{title, current, picker, help}, "\n")

	return renderPlainFrame(body, min(state.PageWidth(), filePickerDialogMaxWidth))
}

func renderModalOverlay(state *State, base string, dialog string) string {
	faded := theme.ModalBackdrop.Render(base)
	overlay := lipgloss.Place(state.Width, state.Height, lipgloss.Center, lipgloss.Center, dialog)

	return faded + "\n" + overlay
}

func overviewLeftFrameWidth(state *State, rt Runtime, total int) int {
	statusLine := "Status: " + RenderStatus(rt.Status())
	leftInner := max(lipgloss.Width(statusLine), leftFramePreferredWidth)
	leftWidth := max(leftInner+leftFrameExtraWidth, leftFrameMinWidth)
	if leftWidth > total {
		leftWidth = total
	}

	return leftWidth
}

func overviewPaneLayout(total int, leftWidth int) (int, int, bool) {
	gap := outerPaneGap
	minRightWidth := rightPaneMinWidth
	rightWidth := total - leftWidth - gap
	if total < sideBySideMinTotalWidth || rightWidth < minRightWidth {
		return leftWidth, total, true
	}

	return leftWidth, rightWidth, false
}

func ResizePaneViewports(state *State, rt Runtime) {
	total := state.PageWidth()
	leftW := overviewLeftFrameWidth(state, rt, total)
	leftWidth, rightWidth, stacked := overviewPaneLayout(total, leftW)
	if stacked {
		rightWidth = total
	}

	leftInner := max(leftWidth-frameInnerInset, paneInnerMinWidth)
	rightInner := max(rightWidth-frameInnerInset, paneInnerMinWidth)
	paneHeight := defaultOverviewPaneHeight
	if state.Height >= largeOverviewHeightCutover {
		paneHeight = largeOverviewPaneHeight
	}

	state.LeftView.Width = leftInner
	state.LeftView.Height = paneHeight
	state.RightView.Width = rightInner
	state.RightView.Height = paneHeight
}
