package lifecycle

import (
	"time"

	"github.com/codexwm/codex/internal/config"
	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
)

// Eligible reports whether w should ever enter the tiling grid — callers
// supply the host's maximizable/tabbed-Apple-window checks here.
type Eligible func(w state.Window) bool

// AddWindow inserts w into space's grid (skipping hidden, already-indexed,
// or ineligible windows), creates its UI watcher, and retiles.
func (l *Lifecycle) AddWindow(space state.Space, w state.Window, eligible Eligible) error {
	if !l.addWindow(space, w, eligible) {
		return nil
	}
	return l.Tile(space)
}

func (l *Lifecycle) addWindow(space state.Space, w state.Window, eligible Eligible) bool {
	wid, ok := w.ID()
	if !ok {
		return false
	}
	if l.store.IsHidden(wid) {
		return false
	}
	if _, ok := l.store.WindowIndex(wid); ok {
		return false
	}
	if eligible != nil && !eligible(w) {
		return false
	}

	idx := l.insertionColumn(space, w)
	l.store.InsertColumn(space, idx, state.Column{w})
	l.store.CreateWatcher(w, l.watcherFactory)
	return true
}

// insertionColumn decides where a newly added window's column goes:
// directly right of the currently focused column if it's on this space,
// else by the window's current x-center relative to existing columns
// (spec.md §4.4 "add_window").
func (l *Lifecycle) insertionColumn(space state.Space, w state.Window) int {
	if fs, ok := l.focus[space]; ok && fs.hasFocused {
		if loc, ok := l.store.WindowIndex(fs.focused); ok && loc.Space == space {
			return loc.Col + 1
		}
	}

	cols := l.store.Columns(space)
	wid, ok := w.ID()
	if !ok {
		return len(cols)
	}
	frames, err := l.reader.ReadFrames([]tiling.FrameQuery{{WinID: wid, PID: w.PID()}})
	if err != nil {
		return len(cols)
	}
	f, ok := frames[wid]
	if !ok {
		return len(cols)
	}
	center := f.X + f.W/2

	for ci, col := range cols {
		if len(col) == 0 {
			continue
		}
		cwid, ok := col[0].ID()
		if !ok {
			continue
		}
		x, ok := l.store.XPosition(space, cwid)
		if ok && center < x {
			return ci
		}
	}
	return len(cols)
}

// RemoveWindow deletes wid from space's grid. Unless skipFocus, a
// neighbor (DOWN, UP, LEFT, RIGHT in that order) becomes focused.
func (l *Lifecycle) RemoveWindow(space state.Space, wid state.WinID, skipFocus bool) error {
	loc, ok := l.store.WindowIndex(wid)
	if !ok {
		return nil
	}

	var neighbor state.Window
	haveNeighbor := false
	if !skipFocus {
		neighbor, haveNeighbor = l.findNeighbor(space, loc, Down, Up, Left, Right)
	}

	l.store.RemoveWindowByID(wid)
	l.clearFocusReferences(space, wid)

	if haveNeighbor {
		if nwid, ok := neighbor.ID(); ok {
			l.setFocus(space, nwid)
		}
	}

	return l.Tile(space)
}

// EnsureWatchers creates or restarts a watcher for every currently
// gridded, non-hidden window in space (spec.md §4.2 "ensure_watchers
// (space)"). Used after RestoreSpace brings a workspace's windows back
// into the grid, since parking only stops a watcher rather than
// forgetting it (see state.Store.RemoveWindowByID).
func (l *Lifecycle) EnsureWatchers(space state.Space) {
	l.store.EnsureWatchers(space, l.watcherFactory)
}

// FocusWindow moves focus one step from the current anchor in dir and
// asks focuser to focus the resulting window. If a scheduler was
// supplied, it re-issues the focus call after focusStealGuard elapses to
// counter macOS's tendency to steal focus back mid-animation.
func (l *Lifecycle) FocusWindow(space state.Space, dir Direction, focuser Focuser, focusStealGuard time.Duration) error {
	fs, ok := l.focus[space]
	if !ok || !fs.hasFocused {
		return nil
	}
	loc, ok := l.store.WindowIndex(fs.focused)
	if !ok {
		return nil
	}
	w, ok := l.step(space, loc, dir)
	if !ok {
		return nil
	}
	wid, ok := w.ID()
	if !ok {
		return nil
	}

	l.setFocus(space, wid)
	if focuser == nil {
		return nil
	}
	if err := focuser.Focus(w); err != nil {
		return err
	}
	if l.scheduler != nil && focusStealGuard > 0 {
		l.scheduler.After(focusStealGuard, func() { focuser.Focus(w) })
	}
	return nil
}

// SwapWindows exchanges the focused window's column with its left/right
// neighbor column wholesale, or its row with the row above/below within
// the same column.
func (l *Lifecycle) SwapWindows(space state.Space, dir Direction) error {
	fs, ok := l.focus[space]
	if !ok || !fs.hasFocused {
		return nil
	}
	loc, ok := l.store.WindowIndex(fs.focused)
	if !ok {
		return nil
	}

	switch dir {
	case Left, Right:
		target := loc.Col - 1
		if dir == Right {
			target = loc.Col + 1
		}
		cols := l.store.Columns(space)
		if target < 0 || target >= len(cols) {
			return nil
		}
		a, b := l.store.Column(space, loc.Col), l.store.Column(space, target)
		l.store.SetColumn(space, loc.Col, b)
		l.store.SetColumn(space, target, a)
		if wid, ok := b[0].ID(); ok {
			if x, ok := l.store.XPosition(space, wid); ok {
				l.store.SetXPosition(space, fs.focused, x)
			}
		}
	case Up, Down:
		col := l.store.Column(space, loc.Col)
		target := loc.Row - 1
		if dir == Down {
			target = loc.Row + 1
		}
		if target < 0 || target >= len(col) {
			return nil
		}
		col[loc.Row], col[target] = col[target], col[loc.Row]
		l.store.SetColumn(space, loc.Col, col)
	default:
		return nil
	}

	return l.Tile(space)
}

// SlurpWindow moves the focused window into the bottom of the column to
// its left. A no-op if the focused window is already in the leftmost
// column.
func (l *Lifecycle) SlurpWindow(space state.Space) error {
	fs, ok := l.focus[space]
	if !ok || !fs.hasFocused {
		return nil
	}
	loc, ok := l.store.WindowIndex(fs.focused)
	if !ok || loc.Col == 0 {
		return nil
	}

	w, _, ok := l.extractFocused(space)
	if !ok {
		return nil
	}

	leftCol := append(l.store.Column(space, loc.Col-1), w)
	l.store.SetColumn(space, loc.Col-1, leftCol)
	return l.Tile(space)
}

// BarfWindow moves the focused window out into a new column immediately
// to its right.
func (l *Lifecycle) BarfWindow(space state.Space) error {
	w, loc, ok := l.extractFocused(space)
	if !ok {
		return nil
	}
	l.store.InsertColumn(space, loc.Col+1, state.Column{w})
	return l.Tile(space)
}

// extractFocused removes the focused window from its column (pruning the
// column if it becomes empty) and returns it along with its prior
// location. Columns to the left of loc.Col are unaffected by the removal,
// so loc.Col-1 / loc.Col+1 remain valid insertion points for the caller.
func (l *Lifecycle) extractFocused(space state.Space) (state.Window, state.Location, bool) {
	fs, ok := l.focus[space]
	if !ok || !fs.hasFocused {
		return nil, state.Location{}, false
	}
	loc, ok := l.store.WindowIndex(fs.focused)
	if !ok {
		return nil, state.Location{}, false
	}
	col := l.store.Column(space, loc.Col)
	w := col[loc.Row]

	remaining := make(state.Column, 0, len(col)-1)
	remaining = append(remaining, col[:loc.Row]...)
	remaining = append(remaining, col[loc.Row+1:]...)
	l.store.SetColumn(space, loc.Col, remaining)

	return w, loc, true
}

// RefreshWindows re-adds any window in candidates that isn't currently
// indexed, then retiles once if anything was added.
func (l *Lifecycle) RefreshWindows(space state.Space, candidates []state.Window, eligible Eligible) error {
	touched := false
	for _, w := range candidates {
		wid, ok := w.ID()
		if !ok {
			continue
		}
		if _, ok := l.store.WindowIndex(wid); ok {
			continue
		}
		if l.addWindow(space, w, eligible) {
			touched = true
		}
	}
	if !touched {
		return nil
	}
	return l.Tile(space)
}

// MoveWindow applies frame to wid directly (outside of tiling), e.g. for
// host-initiated drags. A no-op if wid is hidden or already at frame.
// Stops wid's watcher before writing and restarts it after
// animationDuration plus a small padding, to avoid observing our own
// write as an OS-initiated move.
func (l *Lifecycle) MoveWindow(wid state.WinID, pid state.PID, frame geom.Frame, animationDuration time.Duration) error {
	if l.store.IsHidden(wid) {
		return nil
	}
	current, err := l.reader.ReadFrames([]tiling.FrameQuery{{WinID: wid, PID: pid}})
	if err != nil {
		return err
	}
	if f, ok := current[wid]; ok && f.Equal(frame) {
		return nil
	}

	l.store.StopWatcher(wid)
	if err := l.mover.MoveWindows([]tiling.MoveOp{{WinID: wid, PID: pid, Frame: frame}}); err != nil {
		return err
	}

	restart := func() { l.store.StartWatcher(wid) }
	delay := animationDuration + config.WatcherRestartPadding
	if l.scheduler != nil {
		l.scheduler.After(delay, restart)
	} else {
		restart()
	}
	return nil
}

// step moves one location in dir through space's grid.
func (l *Lifecycle) step(space state.Space, loc state.Location, dir Direction) (state.Window, bool) {
	cols := l.store.Columns(space)
	if loc.Col < 0 || loc.Col >= len(cols) {
		return nil, false
	}
	col := cols[loc.Col]

	switch dir {
	case Up:
		if loc.Row <= 0 {
			return nil, false
		}
		return col[loc.Row-1], true
	case Down:
		if loc.Row >= len(col)-1 {
			return nil, false
		}
		return col[loc.Row+1], true
	case Left:
		if loc.Col == 0 {
			return nil, false
		}
		return nearestRow(cols[loc.Col-1], loc.Row), true
	case Right:
		if loc.Col >= len(cols)-1 {
			return nil, false
		}
		return nearestRow(cols[loc.Col+1], loc.Row), true
	case Next:
		return stepWrap(cols, loc, 1)
	case Prev:
		return stepWrap(cols, loc, -1)
	}
	return nil, false
}

// nearestRow clamps row into col's valid range.
func nearestRow(col state.Column, row int) state.Window {
	if row >= len(col) {
		row = len(col) - 1
	}
	if row < 0 {
		row = 0
	}
	return col[row]
}

// stepWrap advances to the next/previous row, wrapping across column
// boundaries and around the ends of the grid.
func stepWrap(cols []state.Column, loc state.Location, dir int) (state.Window, bool) {
	total := 0
	for _, c := range cols {
		total += len(c)
	}
	if total == 0 {
		return nil, false
	}

	flat := loc.Row
	for i := 0; i < loc.Col; i++ {
		flat += len(cols[i])
	}

	flat = (flat + dir + total) % total
	for _, c := range cols {
		if flat < len(c) {
			return c[flat], true
		}
		flat -= len(c)
	}
	return nil, false
}

// findNeighbor tries each direction in order and returns the first hit.
func (l *Lifecycle) findNeighbor(space state.Space, loc state.Location, dirs ...Direction) (state.Window, bool) {
	for _, d := range dirs {
		if w, ok := l.step(space, loc, d); ok {
			return w, true
		}
	}
	return nil, false
}
