package headless

import (
	zone "github.com/lrstanley/bubblezone"

	headlessview "modpack-launcher/internal/ui/headless/view"
)

// runtimeView projects mutable runtime state into the render DTO consumed by the view package.
func (m *headlessModel) runtimeView() headlessview.Runtime {
	return headlessview.Runtime{
		BuildVersion: m.buildVersion,
		Phase:        m.phase,
		Ready:        m.ready,
		Snapshot:     m.snapshot,
		Install:      m.install,
		Summary:      m.installSummary,
	}
}

// View is the Bubble Tea render entrypoint; rendering is delegated to the pure view package.
func (m *headlessModel) View() string {
	return zone.Scan(headlessview.RenderApp(&m.ui, m.runtimeView()))
}
