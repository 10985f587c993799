package view

import (
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

type MouseEffect int

const (
	MouseEffectNone MouseEffect = iota
	MouseEffectActivateFocused
	MouseEffectConfirmQuitAccept
)

func ReduceMouse(state State, msg tea.MouseMsg) (State, tea.Cmd, MouseEffect) {
	state.HoverZone = hoveredZone(state, msg)
	click := msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft

	if state.ErrorModalText != "" {
		if click && state.HoverZone == zoneDialogErrorClose {
			state.ErrorModalText = ""
		}
		return state, nil, MouseEffectNone
	}

	if state.ConfirmQuit {
		if !click {
			return state, nil, MouseEffectNone
		}
		switch state.HoverZone {
		case zoneDialogQuitCancel:
			state.ConfirmQuit = false
		case zoneDialogQuitAccept:
			state.ConfirmQuitChoice = confirmChoiceQuit
			return state, nil, MouseEffectConfirmQuitAccept
		}
		return state, nil, MouseEffectNone
	}

	if click {
		for a := range actionCount {
			if state.HoverZone == zoneAction(a) {
				state.Focus = int(a)
				return state, nil, MouseEffectActivateFocused
			}
		}
	}

	var cmd tea.Cmd
	state.LogView, cmd = state.LogView.Update(msg)
	state.FollowLogs = state.LogView.AtTop()
	return state, cmd, MouseEffectNone
}

func hoveredZone(state State, msg tea.MouseMsg) string {
	var candidates []string
	switch {
	case state.ErrorModalText != "":
		candidates = []string{zoneDialogErrorClose}
	case state.ConfirmQuit:
		candidates = []string{zoneDialogQuitCancel, zoneDialogQuitAccept}
	default:
		candidates = make([]string, 0, actionCount)
		for a := range actionCount {
			candidates = append(candidates, zoneAction(a))
		}
	}
	for _, id := range candidates {
		if zone.Get(id).InBounds(msg) {
			return id
		}
	}
	return ""
}
