package view

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type KeyEffect int

const (
	KeyEffectNone KeyEffect = iota
	KeyEffectRequestQuit
	KeyEffectActivateFocused
	KeyEffectConfirmQuitAccept
	KeyEffectPassThrough
)

const confirmChoiceCount = 2

const confirmChoiceQuit = 1

func ReduceKey(state State, msg tea.KeyMsg) (State, KeyEffect) {
	if state.ErrorModalText != "" {
		if msg.String() == "esc" || key.Matches(msg, state.Keys.Activate) {
			state.ErrorModalText = ""
		}
		return state, KeyEffectNone
	}

	if state.ConfirmQuit {
		switch {
		case msg.String() == "esc":
			state.ConfirmQuit = false
			return state, KeyEffectNone
		case key.Matches(msg, state.Keys.ModalToggle):
			state.ConfirmQuitChoice = (state.ConfirmQuitChoice + 1) % confirmChoiceCount
			return state, KeyEffectNone
		case key.Matches(msg, state.Keys.Activate):
			if state.ConfirmQuitChoice == confirmChoiceQuit {
				return state, KeyEffectConfirmQuitAccept
			}
			state.ConfirmQuit = false
			return state, KeyEffectNone
		default:
			return state, KeyEffectNone
		}
	}

	switch {
	case key.Matches(msg, state.Keys.Quit):
		return state, KeyEffectRequestQuit
	case key.Matches(msg, state.Keys.LatestLogs):
		state.FollowLogs = true
		state.LogView.GotoTop()
		return state, KeyEffectNone
	case key.Matches(msg, state.Keys.NextFocus):
		state.Focus = (state.Focus + 1) % state.FocusCount()
		return state, KeyEffectNone
	case key.Matches(msg, state.Keys.PrevFocus):
		state.Focus = (state.Focus + state.FocusCount() - 1) % state.FocusCount()
		return state, KeyEffectNone
	case key.Matches(msg, state.Keys.Activate):
		return state, KeyEffectActivateFocused
	}

	return state, KeyEffectPassThrough
}
