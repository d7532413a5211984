package workspace

import (
	"github.com/codexwm/codex/internal/config"
	"github.com/codexwm/codex/internal/events"
	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
)

// Setup performs the one-time initial partition described in spec.md
// §4.5: it assigns every currently visible window to a workspace, then
// (after letting macOS settle) parks every non-current window off-screen
// and retiles what remains.
func (m *Manager) Setup(existing []Window) {
	m.current = Name(m.cfg.Workspaces[0])
	m.switching = true

	for _, w := range existing {
		wid, ok := w.ID()
		if !ok {
			continue
		}
		ws := m.resolveWorkspace(w)
		m.ensureWorkspace(ws)
		m.windows[ws][wid] = w
		m.winWS[wid] = ws
		m.winPID[wid] = w.PID()
	}

	m.subscribeLifecycleHooks()

	settle := func() { m.partitionActiveSpace() }
	if m.scheduler != nil {
		m.scheduler.After(config.SetupSettleDelay, settle)
	} else {
		settle()
	}
}

// OnScreenChanged marks the managed screen's geometry as stale and
// re-parks every currently hidden window at the new park coordinates.
// The host is expected to call this from its own screen-geometry watcher
// (spec.md §4.5 step 5); screen enumeration itself is an external
// collaborator concern.
func (m *Manager) OnScreenChanged() {
	m.screenChanged = true

	screen, ok := m.screens.Screen(m.space)
	if !ok {
		return
	}

	var ops []tiling.MoveOp
	for wid := range m.winWS {
		if m.store.IsHidden(wid) {
			ops = append(ops, parkOp(wid, m.winPID[wid], screen))
		}
	}
	if len(ops) > 0 {
		m.transport.MoveWindowsAsync(ops)
	}
}

func (m *Manager) subscribeLifecycleHooks() {
	m.router.Subscribe(events.WindowVisible, func(w state.Window) {
		if ww, ok := w.(Window); ok {
			m.OnWindowCreated(ww)
		}
	})
	m.router.Subscribe(events.WindowDestroyed, func(w state.Window) {
		m.OnWindowDestroyed(w)
	})
	m.router.Subscribe(events.WindowFocused, func(w state.Window) {
		m.OnWindowFocused(w)
	})
}

func (m *Manager) partitionActiveSpace() {
	m.router.Pause()

	screen, _ := m.screens.Screen(m.space)
	var parkOps []tiling.MoveOp

	for name, ws := range m.windows {
		if name == m.current {
			continue
		}
		for wid, w := range ws {
			loc, ok := m.store.WindowIndex(wid)
			if !ok || loc.Space != m.space {
				continue
			}
			if f, ferr := m.readFrame(wid, w.PID()); ferr == nil {
				m.frames[wid] = f
			}
			m.store.RemoveWindowByID(wid)
			m.store.SetHidden(wid, true)
			m.store.StopWatcher(wid)
			parkOps = append(parkOps, parkOp(wid, w.PID(), screen))
		}
	}

	if len(parkOps) > 0 {
		if err := m.transport.MoveWindows(parkOps); err != nil {
			m.logger.Warn("setup: park batch reported an error", "err", err)
		}
	}

	m.snapshots[m.current] = m.store.SnapshotSpace(m.space)

	m.router.Resume()
	_ = m.lc.Tile(m.space)
	m.switching = false
}

func (m *Manager) readFrame(wid state.WinID, pid state.PID) (geom.Frame, error) {
	frames, err := m.transport.ReadFrames([]tiling.FrameQuery{{WinID: wid, PID: pid}})
	if err != nil {
		return geom.Frame{}, err
	}
	f, ok := frames[wid]
	if !ok {
		return geom.Frame{}, errNoFrame
	}
	return f, nil
}

func parkOp(wid state.WinID, pid state.PID, screen geom.Frame) tiling.MoveOp {
	return tiling.MoveOp{
		WinID: wid,
		PID:   pid,
		Frame: geom.Frame{
			X: screen.X2() - config.ParkOffset,
			Y: screen.Y2() - config.ParkOffset,
		},
		PositionOnly: true,
	}
}
