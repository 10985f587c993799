package view

import (
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"modpack-launcher/internal/ui/headless/keyboard"
)

const (
	defaultAnimPhase     = 0
	defaultLogViewWidth  = 80
	defaultLogViewHeight = 20
	defaultPaneWidth     = 24
	defaultPaneHeight    = 8
	maxAnimPhaseValue    = 1_000_000_000
)

type State struct {
	Focus int

	HelpView help.Model
	Keys     keyboard.Map

	// FollowLogs keeps the log scrolled to the newest entry, which is the
	// first line.
	FollowLogs bool

	LogText   string
	LogView   viewport.Model
	LeftView  viewport.Model
	RightView viewport.Model

	Width     int
	Height    int
	AnimPhase int

	ConfirmQuit       bool
	ConfirmQuitChoice int
	ErrorModalText    string
	FilePickerOpen    bool
	FilePicker        filepicker.Model
	HoverZone         string
}

func NewState() State {
	picker := filepicker.New()
	picker.FileAllowed = false
	picker.DirAllowed = true
	picker.ShowHidden = false
	picker.ShowSize = false
	picker.ShowPermissions = false
	picker.KeyMap.Open = key.NewBinding(key.WithKeys(" ", "right", "l"), key.WithHelp("space", "open"))
	picker.KeyMap.Select = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select"))

	helpView := help.New()
	helpView.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	helpView.Styles.FullKey = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	helpView.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpView.Styles.FullDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpView.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpView.Styles.FullSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpView.Styles.Ellipsis = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	return State{
		HelpView:   helpView,
		Keys:       keyboard.New(),
		FollowLogs: true,
		AnimPhase:  defaultAnimPhase,
		LogView:    viewport.New(defaultLogViewWidth, defaultLogViewHeight),
		LeftView:   viewport.New(defaultPaneWidth, defaultPaneHeight),
		RightView:  viewport.New(defaultPaneWidth, defaultPaneHeight),
		FilePicker: picker,
	}
}

func (s State) WithWindowSize(width int, height int) State {
	s.Width = width
	s.Height = height
	return s
}

func (s State) WithTick() State {
	s.AnimPhase++
	if s.AnimPhase > maxAnimPhaseValue {
		s.AnimPhase = defaultAnimPhase
	}
	return s
}
