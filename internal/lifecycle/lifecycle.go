// Package lifecycle implements the window-level operations that keep the
// State Store consistent with user and OS intent: add, remove, focus,
// swap, slurp, barf, refresh, and move (spec.md §4.4). Every operation
// that changes the column grid retiles the affected space afterward.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
)

// Direction is a traversal or swap direction through the column grid.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
	Next
	Prev
)

// ScreenProvider resolves the screen frame backing a space.
type ScreenProvider interface {
	Screen(space state.Space) (geom.Frame, bool)
}

// Focuser asks the host OS to focus a window.
type Focuser interface {
	Focus(w state.Window) error
}

// Scheduler runs fn once after d elapses, on the cooperative thread.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// focusHistory is the three-deep focus chain tiling needs to infer scroll
// direction for sticky pairs (spec.md §9 design note: update prevPrev
// before overwriting prev on every focus change).
type focusHistory struct {
	focused     state.WinID
	hasFocused  bool
	prev        state.WinID
	hasPrev     bool
	prevPrev    state.WinID
	hasPrevPrev bool
}

// Lifecycle wires the State Store to the Tiling Engine and the AX
// Transport (via tiling.FrameReader/tiling.Mover) to implement window
// operations.
type Lifecycle struct {
	store   *state.Store
	policy  tiling.Policy
	reader  tiling.FrameReader
	mover   tiling.Mover
	screens ScreenProvider

	watcherFactory state.WatcherFactory
	scheduler      Scheduler

	focus map[state.Space]*focusHistory
}

// New builds a Lifecycle over store, wired to reader/mover for frame
// reads and writes and screens for canvas geometry. scheduler may be nil,
// in which case watcher-restart delays run synchronously instead.
func New(store *state.Store, policy tiling.Policy, reader tiling.FrameReader, mover tiling.Mover, screens ScreenProvider, watcherFactory state.WatcherFactory, scheduler Scheduler) *Lifecycle {
	return &Lifecycle{
		store:          store,
		policy:         policy,
		reader:         reader,
		mover:          mover,
		screens:        screens,
		watcherFactory: watcherFactory,
		scheduler:      scheduler,
		focus:          make(map[state.Space]*focusHistory),
	}
}

// Tile recomputes and applies the layout for space.
func (l *Lifecycle) Tile(space state.Space) error {
	screen, ok := l.screens.Screen(space)
	if !ok {
		return fmt.Errorf("tile space %d: no screen", space)
	}
	return tiling.TileSpace(l.store, space, screen, l.policy, l.focusContext(space), l.reader, l.mover)
}

// SetFocused records wid as space's current focus, shifting the history
// chain, without invoking a host focus call. Used when focus changes via
// an OS event rather than a user-initiated FocusWindow call.
func (l *Lifecycle) SetFocused(space state.Space, wid state.WinID) {
	l.setFocus(space, wid)
}

// Focused returns space's currently tracked focused window, if any.
func (l *Lifecycle) Focused(space state.Space) (state.WinID, bool) {
	fs, ok := l.focus[space]
	if !ok {
		return 0, false
	}
	return fs.focused, fs.hasFocused
}

func (l *Lifecycle) setFocus(space state.Space, wid state.WinID) {
	fs, ok := l.focus[space]
	if !ok {
		fs = &focusHistory{}
		l.focus[space] = fs
	}
	if fs.hasFocused {
		fs.prevPrev, fs.hasPrevPrev = fs.prev, fs.hasPrev
		fs.prev, fs.hasPrev = fs.focused, true
	}
	fs.focused, fs.hasFocused = wid, true
}

func (l *Lifecycle) clearFocusReferences(space state.Space, wid state.WinID) {
	fs, ok := l.focus[space]
	if !ok {
		return
	}
	if fs.hasFocused && fs.focused == wid {
		fs.hasFocused = false
	}
	if fs.hasPrev && fs.prev == wid {
		fs.hasPrev = false
	}
	if fs.hasPrevPrev && fs.prevPrev == wid {
		fs.hasPrevPrev = false
	}
}

func (l *Lifecycle) focusContext(space state.Space) tiling.FocusContext {
	fs, ok := l.focus[space]
	if !ok {
		return tiling.FocusContext{}
	}
	return tiling.FocusContext{
		Focused:          fs.focused,
		HasFocus:         fs.hasFocused,
		PrevPrevFocused:  fs.prevPrev,
		HasPrevPrevFocus: fs.hasPrevPrev,
	}
}
