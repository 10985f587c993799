package view

import tea "github.com/charmbracelet/bubbletea"

// ReduceInput hands msg to the log viewport. Scrolling away from the newest
// entry stops following.
func ReduceInput(state State, msg tea.Msg) (State, tea.Cmd, bool) {
	if state.ErrorModalText != "" || state.ConfirmQuit || state.FilePickerOpen {
		return state, nil, false
	}
	var cmd tea.Cmd
	state.LogView, cmd = state.LogView.Update(msg)
	state.FollowLogs = state.LogView.AtTop()
	return state, cmd, true
}
