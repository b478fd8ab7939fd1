package actions

import "github.com/stake-plus/activity-tickets/src/actions/core"

type (
	// Manager re-exports core.Manager for callers outside actions.
	Manager = core.Manager
	// Module re-exports core.Module.
	Module = core.Module
)

// NewManager forwards to core.NewManager.
func NewManager(mods ...Module) *Manager {
	return core.NewManager(mods...)
}
