package view

type ActivateEffect int

const (
	ActivateEffectNone ActivateEffect = iota
	ActivateEffectChangeLocation
	ActivateEffectUpdate
	ActivateEffectLaunch
	ActivateEffectCheckIntegrity
	ActivateEffectRefresh
	ActivateEffectClearLog
	ActivateEffectRequestQuit
)

func ReduceActivate(state State, rt Runtime) (State, ActivateEffect) {
	action := state.FocusedAction()
	if !Enabled(action, rt) {
		return state, ActivateEffectNone
	}
	switch action {
	case ActionChangeLocation:
		return state, ActivateEffectChangeLocation
	case ActionUpdate:
		return state, ActivateEffectUpdate
	case ActionLaunch:
		return state, ActivateEffectLaunch
	case ActionCheckIntegrity:
		return state, ActivateEffectCheckIntegrity
	case ActionRefresh:
		return state, ActivateEffectRefresh
	case ActionClearLog:
		state.FollowLogs = true
		return state, ActivateEffectClearLog
	case ActionQuit:
		return state, ActivateEffectRequestQuit
	default:
		return state, ActivateEffectNone
	}
}
