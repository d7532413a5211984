package workspace

import (
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
)

// MoveWindowTo moves the currently focused window into workspace n
// (spec.md §4.5 "move_window_to(N)"). A no-op if the focused window is
// already a member of n.
func (m *Manager) MoveWindowTo(n Name) {
	focusedWid, ok := m.lc.Focused(m.space)
	if !ok {
		return
	}
	src := m.winWS[focusedWid]
	if src == n {
		return
	}
	w, ok := m.windows[src][focusedWid]
	if !ok {
		return
	}

	delete(m.windows[src], focusedWid)
	m.removeFromPending(src, focusedWid)

	m.ensureWorkspace(n)
	m.windows[n][focusedWid] = w
	m.winWS[focusedWid] = n

	wasScratch := m.cfg.IsScratch(string(src))
	nowScratch := m.cfg.IsScratch(string(n))
	if nowScratch && !wasScratch {
		m.store.SetFloating(focusedWid, true)
	} else if wasScratch && !nowScratch {
		m.store.SetFloating(focusedWid, false)
	}

	m.appendPending(n, focusedWid, w)
	m.focused[n] = focusedWid

	if n == m.current {
		return
	}

	loc, ok := m.store.WindowIndex(focusedWid)
	if !ok {
		return
	}
	neighbor, hasNeighbor := m.neighborFor(loc)

	if err := m.lc.RemoveWindow(m.space, focusedWid, true); err != nil {
		m.logger.Warn("move_window_to: remove_window failed", "wid", focusedWid, "err", err)
	}

	screen, _ := m.screens.Screen(m.space)
	m.store.SetHidden(focusedWid, true)
	m.store.StopWatcher(focusedWid)
	if f, err := m.readFrame(focusedWid, w.PID()); err == nil {
		m.frames[focusedWid] = f
	}
	if err := m.transport.MoveWindows([]tiling.MoveOp{parkOp(focusedWid, w.PID(), screen)}); err != nil {
		m.logger.Warn("move_window_to: park failed", "wid", focusedWid, "err", err)
	}

	if hasNeighbor {
		if nwid, ok := neighbor.ID(); ok {
			m.lc.SetFocused(m.space, nwid)
		}
		if m.focuser != nil {
			if err := m.focuser.Focus(neighbor); err != nil {
				m.logger.Warn("move_window_to: focus neighbor failed", "err", err)
			}
		}
	}

	m.snapshots[m.current] = m.store.SnapshotSpace(m.space)

	if m.store.ColumnCount(m.space) > 0 {
		_ = m.lc.Tile(m.space)
	}
}

// neighborFor finds an adjacent window to take focus once loc's window is
// removed: same column, adjacent row first, else the adjacent column's
// first row (spec.md §4.5 "move_window_to(N)").
func (m *Manager) neighborFor(loc state.Location) (state.Window, bool) {
	col := m.store.Column(loc.Space, loc.Col)
	if len(col) > loc.Row+1 {
		return col[loc.Row+1], true
	}
	if loc.Row > 0 {
		return col[loc.Row-1], true
	}
	cols := m.store.Columns(loc.Space)
	for _, adj := range []int{loc.Col + 1, loc.Col - 1} {
		if adj < 0 || adj >= len(cols) || adj == loc.Col {
			continue
		}
		if len(cols[adj]) > 0 {
			return cols[adj][0], true
		}
	}
	return nil, false
}

func (m *Manager) removeFromPending(name Name, wid state.WinID) {
	list := m.pending[name]
	for i, p := range list {
		if p.wid == wid {
			m.pending[name] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (m *Manager) appendPending(name Name, wid state.WinID, w Window) {
	for _, p := range m.pending[name] {
		if p.wid == wid {
			return
		}
	}
	m.pending[name] = append(m.pending[name], pendingWindow{wid: wid, w: w})
}
