package workspace

import (
	"github.com/codexwm/codex/internal/config"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
)

// OnWindowCreated handles a newly visible window (spec.md §4.5
// "onWindowCreated(W)"): it is skipped if already tracked, otherwise
// assigned to a workspace (falling back to current) and parked if that
// workspace is not the active one.
func (m *Manager) OnWindowCreated(w Window) {
	wid, ok := w.ID()
	if !ok {
		return
	}
	if _, tracked := m.winWS[wid]; tracked {
		return
	}

	ws := m.resolveWorkspace(w)
	m.ensureWorkspace(ws)
	m.windows[ws][wid] = w
	m.winWS[wid] = ws
	m.winPID[wid] = w.PID()

	if m.cfg.IsScratch(string(ws)) {
		m.store.SetFloating(wid, true)
	}

	for category := range m.cfg.JumpTargets {
		m.cacheJumpWindow(category, w)
	}

	if ws == m.current {
		return
	}

	park := func() { m.parkNewWindow(wid, w) }
	if m.scheduler != nil {
		m.scheduler.After(config.NewWindowParkDelay, park)
	} else {
		park()
	}
}

func (m *Manager) parkNewWindow(wid state.WinID, w Window) {
	if _, stillExists := m.winWS[wid]; !stillExists {
		return
	}
	if err := m.lc.RemoveWindow(m.space, wid, true); err != nil {
		m.logger.Warn("onWindowCreated: remove_window failed", "wid", wid, "err", err)
	}
	m.store.SetHidden(wid, true)
	m.store.StopWatcher(wid)

	screen, _ := m.screens.Screen(m.space)
	if f, err := m.readFrame(wid, w.PID()); err == nil {
		m.frames[wid] = f
	}
	if err := m.transport.MoveWindows([]tiling.MoveOp{parkOp(wid, w.PID(), screen)}); err != nil {
		m.logger.Warn("onWindowCreated: park failed", "wid", wid, "err", err)
	}
	_ = m.lc.Tile(m.space)
}

// OnWindowDestroyed removes all trace of w from workspace membership and
// bookkeeping (spec.md §4.5 "onWindowDestroyed(W)").
func (m *Manager) OnWindowDestroyed(w state.Window) {
	wid, ok := w.ID()
	if !ok {
		return
	}
	ws, tracked := m.winWS[wid]
	if !tracked {
		return
	}

	delete(m.windows[ws], wid)
	m.removeFromPending(ws, wid)
	delete(m.winWS, wid)
	delete(m.winPID, wid)
	delete(m.frames, wid)
	m.invalidateJumpCacheFor(wid)

	if m.focused[ws] == wid {
		delete(m.focused, ws)
	}
	if m.prevJump != nil && m.prevJump.windowID == wid {
		m.prevJump = nil
	}

	m.stripFromSnapshot(ws, wid)
}

func (m *Manager) stripFromSnapshot(ws Name, wid state.WinID) {
	snap, ok := m.snapshots[ws]
	if !ok {
		return
	}
	var cols []state.Column
	for _, col := range snap.Columns {
		var kept state.Column
		for _, w := range col {
			if got, ok := w.ID(); ok && got == wid {
				continue
			}
			kept = append(kept, w)
		}
		if len(kept) > 0 {
			cols = append(cols, kept)
		}
	}
	snap.Columns = cols
	m.snapshots[ws] = snap
}

// invalidateJumpCacheFor drops any jump-cache entry pointing at wid. The
// cache is keyed by category+workspace, not window id, so every entry is
// checked.
func (m *Manager) invalidateJumpCacheFor(wid state.WinID) {
	for key, entry := range m.jumpCache {
		if got, ok := entry.w.ID(); ok && got == wid {
			delete(m.jumpCache, key)
		}
	}
}

// OnWindowFocused tracks the focused window per workspace and, for a
// cross-workspace focus event, debounces a switch_to so that transient
// focus churn during a switch doesn't trigger another switch (spec.md
// §4.5 "onWindowFocused(W)").
func (m *Manager) OnWindowFocused(w state.Window) {
	if m.switching || w == nil {
		return
	}
	wid, ok := w.ID()
	if !ok {
		return
	}
	if m.store.IsHidden(wid) {
		return
	}

	ws, tracked := m.winWS[wid]
	if !tracked {
		return
	}

	if ws == m.current {
		m.focused[m.current] = wid
		m.lc.SetFocused(m.space, wid)
		return
	}

	fire := func() {
		if m.switching {
			return
		}
		focusedNow, ok := m.lc.Focused(m.space)
		if !ok || focusedNow != wid {
			return
		}
		if m.winWS[wid] != m.current {
			m.SwitchTo(ws, false)
		}
	}
	if m.scheduler != nil {
		m.scheduler.After(config.FocusSwitchDebounce, fire)
	} else {
		fire()
	}
}
