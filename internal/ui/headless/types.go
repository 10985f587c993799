package headless

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runtime"
	"modpack-launcher/internal/selfupdate"
	"modpack-launcher/internal/ui/health"
	headlessview "modpack-launcher/internal/ui/headless/view"
)

type changedMsg struct{}
type phaseMsg string
type tickMsg struct{}
type readyMsg struct{}

type restartMsg struct {
	outcome selfupdate.Outcome
}

type runDoneMsg struct {
	err error
}

type startResultMsg struct {
	err error
}

type opResultMsg struct {
	result launcher.Result
}

type pickRequestMsg struct {
	request pickRequest
}

type quitNowMsg struct{}

type modelDeps struct {
	runner       *runtime.Controller
	service      *runtime.Service
	orchestrator *launcher.Orchestrator
	logger       *logging.Logger
	unsubscribe  func()
	rootCtx      context.Context
	rootCancel   context.CancelFunc
	program      *tea.Program
}

type modelChannels struct {
	changeCh chan struct{}
	phaseCh  chan string
	pickCh   chan pickRequest
}

type modelRuntime struct {
	ready    bool
	quitting bool
	phase    string
	snapshot launcher.Snapshot

	install           []health.Row
	installSummary    string
	lastHealthRefresh time.Time

	// pendingPick is the directory request the file picker will answer.
	pendingPick *pickRequest
}

type headlessModel struct {
	buildVersion string
	modelDeps
	modelChannels
	modelRuntime
	cleanupOnce sync.Once
	ui          headlessview.State
}
