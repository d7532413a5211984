// Package state is the authoritative in-memory model for one physical
// macOS space: the column/row grid of managed windows, the reverse index,
// the x-position memo, the hidden/floating sets, and UI watcher handles.
//
// The column grid, reverse index, x-positions, hidden set, floating set,
// and watcher registry are single-owner structures (spec.md §5): callers
// run on one cooperative goroutine and no locking is performed here.
package state

// WinID is a window's stable OS identity. It survives as a map key even
// after the underlying OS handle (Window) becomes stale.
type WinID uint32

// PID is an OS process identity.
type PID int32

// Space is a macOS Mission-Control space id.
type Space uint64

// Window is an opaque, possibly-stale OS window handle. ID must be
// failure-tolerant: once the underlying OS window is destroyed, ID reports
// ok=false instead of panicking or blocking (spec.md §3, §9).
type Window interface {
	// ID returns the window's stable identity, or ok=false if the
	// underlying OS window no longer exists.
	ID() (id WinID, ok bool)
	// PID returns the owning process id.
	PID() PID
}

// Location identifies a window's position within the column grid.
type Location struct {
	Space Space
	Col   int
	Row   int
}

// Column is an ordered sequence of windows (spec.md §3: "Column grid").
type Column []Window

// Watcher listens for OS-initiated move/resize of a single window and is
// stopped around programmatic writes to avoid feedback loops (spec.md §3,
// §4.2, §5).
type Watcher interface {
	Start()
	Stop()
}

// WatcherFactory constructs a Watcher bound to w. Supplied by the caller
// (normally internal/ax) so that internal/state has no AX dependency.
type WatcherFactory func(w Window) Watcher
