package workspace

import (
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
)

// SwitchTo activates workspace n, parking every window of the previously
// active workspace and restoring n's saved layout (spec.md §4.5
// "Switch protocol switch_to(N)"). saveJump controls whether this call
// records a jump point for toggleJump — OS-driven focus debounces pass
// false (spec.md §4.5 onWindowFocused: "without saving a jump point").
func (m *Manager) SwitchTo(n Name, saveJump bool) {
	if m.switching {
		return
	}
	if n == m.current {
		if m.cfg.ToggleBack && m.prevJump != nil {
			n = m.prevJump.workspace
		} else {
			return
		}
	}

	if saveJump {
		if focused, ok := m.lc.Focused(m.space); ok {
			jp := jumpPoint{workspace: m.current, windowID: focused}
			m.prevJump = &jp
		}
	}

	m.switching = true
	m.router.Pause()

	switchID := newTaskID()
	m.logger.Debug("switch_to: begin", "switch_id", switchID, "from", m.current, "to", n)

	old := m.current
	m.current = n

	if focused, ok := m.lc.Focused(m.space); ok {
		m.focused[old] = focused
	}

	m.ensureWorkspace(old)
	m.ensureWorkspace(n)

	oldWids := widsOf(m.windows[old])
	for _, wid := range oldWids {
		m.store.StopWatcher(wid)
	}

	if len(oldWids) > 0 {
		queries := make([]tiling.FrameQuery, 0, len(oldWids))
		for _, wid := range oldWids {
			queries = append(queries, tiling.FrameQuery{WinID: wid, PID: m.winPID[wid]})
		}
		frames, err := m.transport.ReadFrames(queries)
		if err != nil {
			m.logger.Warn("switch_to: read old frames failed", "err", err)
		}
		for wid, f := range frames {
			m.frames[wid] = f
		}
	}

	m.snapshots[old] = m.store.SnapshotSpace(m.space)

	for wid := range m.windows[n] {
		m.store.SetHidden(wid, false)
	}
	for wid := range m.windows[old] {
		m.store.SetHidden(wid, true)
	}

	screen, _ := m.screens.Screen(m.space)
	var restoreOps, parkOps []tiling.MoveOp
	for wid := range m.windows[n] {
		if f, ok := m.frames[wid]; ok {
			restoreOps = append(restoreOps, tiling.MoveOp{WinID: wid, PID: m.winPID[wid], Frame: f})
			delete(m.frames, wid)
		}
	}
	for _, wid := range oldWids {
		parkOps = append(parkOps, parkOp(wid, m.winPID[wid], screen))
	}

	if len(restoreOps) > 0 {
		if err := m.transport.MoveWindows(restoreOps); err != nil {
			m.logger.Warn("switch_to: restore batch reported an error", "err", err)
		}
	}
	if len(parkOps) > 0 {
		m.transport.MoveWindowsAsync(parkOps)
	}

	isScratch := m.cfg.IsScratch(string(n))
	if isScratch {
		for wid := range m.windows[n] {
			m.store.SetFloating(wid, true)
		}
	}

	snapWasEmpty := true
	if !isScratch {
		snap := validateSnapshot(m.snapshots[n], m.windows[n])
		snapWasEmpty = len(snap.Columns) == 0
		m.store.RestoreSpace(m.space, snap)
		m.lc.EnsureWatchers(m.space)
	}

	drained := m.pending[n]
	pendingWasNonEmpty := m.drainPending(n)

	if !isScratch && (snapWasEmpty || m.screenChanged || pendingWasNonEmpty) {
		if m.screenChanged {
			m.refreshWindows(n)
		}
		_ = m.lc.Tile(m.space)
	}

	m.focusSwitchTarget(n, isScratch, drained)

	if !isScratch {
		m.router.Resume()
	}
	m.switching = false
	m.logger.Debug("switch_to: done", "switch_id", switchID)
}

func widsOf(ws map[state.WinID]Window) []state.WinID {
	out := make([]state.WinID, 0, len(ws))
	for wid := range ws {
		out = append(out, wid)
	}
	return out
}

// validateSnapshot drops snapshot entries whose window is no longer a
// member of workspace n (spec.md §4.5 step 11: "drop any entries whose
// wid is not in ws_windows[N]").
func validateSnapshot(snap state.Snapshot, members map[state.WinID]Window) state.Snapshot {
	out := state.Snapshot{XPositions: snap.XPositions}
	for _, col := range snap.Columns {
		var kept state.Column
		for _, w := range col {
			wid, ok := w.ID()
			if !ok {
				continue
			}
			if _, isMember := members[wid]; isMember {
				kept = append(kept, w)
			}
		}
		if len(kept) > 0 {
			out.Columns = append(out.Columns, kept)
		}
	}
	return out
}

func (m *Manager) drainPending(n Name) bool {
	list := m.pending[n]
	if len(list) == 0 {
		return false
	}
	delete(m.pending, n)

	for _, p := range list {
		wid, ok := p.w.ID()
		if !ok || wid != p.wid {
			continue
		}
		if m.store.IsFloating(wid) {
			continue
		}
		if _, indexed := m.store.WindowIndex(wid); indexed {
			continue
		}
		if _, stillMember := m.windows[n][wid]; !stillMember {
			continue
		}
		if err := m.lc.AddWindow(m.space, p.w, m.eligible); err != nil {
			m.logger.Warn("switch_to: drain pending add_window failed", "wid", wid, "err", err)
		}
	}
	return true
}

func (m *Manager) refreshWindows(n Name) {
	candidates := make([]state.Window, 0, len(m.windows[n]))
	for _, w := range m.windows[n] {
		candidates = append(candidates, w)
	}
	if err := m.lc.RefreshWindows(m.space, candidates, m.eligible); err != nil {
		m.logger.Warn("switch_to: refresh_windows failed", "err", err)
	}
}

func (m *Manager) focusSwitchTarget(n Name, isScratch bool, drained []pendingWindow) {
	var target state.Window

	if isScratch {
		if wid, ok := m.focused[n]; ok {
			target = m.windows[n][wid]
		}
		if target == nil {
			for _, w := range m.windows[n] {
				target = w
				break
			}
		}
	} else {
		if wid, ok := m.focused[n]; ok {
			for _, p := range drained {
				if p.wid == wid {
					target = p.w
					break
				}
			}
			if target == nil {
				target = m.findInSnapshot(n, wid)
			}
			if target == nil {
				target = m.windows[n][wid]
			}
		}
		if target == nil {
			target = m.firstInSnapshot(n)
		}
	}

	if target == nil {
		return
	}
	if wid, ok := target.ID(); ok {
		m.lc.SetFocused(m.space, wid)
	}
	if m.focuser != nil {
		if err := m.focuser.Focus(target); err != nil {
			m.logger.Warn("switch_to: focus failed", "err", err)
		}
	}
}

func (m *Manager) findInSnapshot(n Name, wid state.WinID) state.Window {
	snap, ok := m.snapshots[n]
	if !ok {
		return nil
	}
	for _, col := range snap.Columns {
		for _, w := range col {
			if got, ok := w.ID(); ok && got == wid {
				return w
			}
		}
	}
	return nil
}

func (m *Manager) firstInSnapshot(n Name) state.Window {
	snap, ok := m.snapshots[n]
	if !ok {
		return nil
	}
	for _, col := range snap.Columns {
		if len(col) > 0 {
			return col[0]
		}
	}
	return nil
}
