// Package config loads and watches the workspace configuration: workspace
// names, window-to-workspace routing rules, and jump targets.
package config

import "time"

// =============================================================================
// AX Transport Timing
// =============================================================================

const (
	// AXOpTimeout bounds a single per-app AX messaging round trip. A hung
	// app at worst costs this much wall time before its windows are
	// skipped for the batch.
	AXOpTimeout = 100 * time.Millisecond
)

// =============================================================================
// Workspace Manager Timing
// =============================================================================

const (
	// SetupSettleDelay is how long Setup waits after scanning existing
	// windows before partitioning the active space into workspaces, to
	// let macOS finish laying out windows that were still animating in.
	SetupSettleDelay = 1 * time.Second

	// FocusSwitchDebounce is the window after a cross-workspace focus
	// event before it triggers switch_to. The resulting switch is
	// OS-driven and records no jump point.
	FocusSwitchDebounce = 300 * time.Millisecond

	// NewWindowParkDelay is how long onWindowCreated waits before parking
	// a window created on a non-active workspace.
	NewWindowParkDelay = 100 * time.Millisecond

	// WatcherRestartPadding is added to the host's reported animation
	// duration before a UI watcher is restarted after a programmatic
	// frame write, to avoid the watcher observing its own write.
	WatcherRestartPadding = 20 * time.Millisecond
)

// =============================================================================
// Park Geometry
// =============================================================================

const (
	// ParkOffset places a hidden window's origin this many points inside
	// the bottom-right corner of the screen: on-screen by a hair so
	// macOS does not clamp the move, but outside any visible content.
	ParkOffset = 1.0
)
