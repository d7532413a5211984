package workspace

// AppFinder is the external collaborator that resolves a running app's
// windows; it is not owned by this package. Launching new processes is
// the Launcher's job.
type AppFinder interface {
	// WindowsForApp returns the currently known windows belonging to
	// appName, in no particular order.
	WindowsForApp(appName string) []Window
}

// JumpToApp focuses (or switches to and focuses) the window assigned to
// category on the current workspace (spec.md §4.5 "jumpToApp(category)").
func (m *Manager) JumpToApp(category string, finder AppFinder, launcher Launcher) {
	byWS, ok := m.cfg.JumpTargets[category]
	if !ok {
		return
	}
	target, ok := byWS[string(m.current)]
	if !ok {
		return
	}

	if m.cfg.ToggleBack {
		if focusedWid, ok := m.lc.Focused(m.space); ok {
			if w := m.windows[m.current][focusedWid]; w != nil && w.AppName() == target.App {
				if target.Title == "" || m.matchTitle(target.Title, w.Title()) {
					m.ToggleJump()
					return
				}
			}
		}
	}

	if focusedWid, ok := m.lc.Focused(m.space); ok {
		jp := jumpPoint{workspace: m.current, windowID: focusedWid}
		m.prevJump = &jp
	}

	if target.Title != "" {
		key := jumpCacheKey{category: category, workspace: m.current}
		if entry, ok := m.jumpCache[key]; ok {
			if m.matchTitle(entry.titlePattern, entry.w.Title()) {
				if wid, ok := entry.w.ID(); ok {
					if _, member := m.windows[m.current][wid]; member {
						m.focusWindow(entry.w)
						return
					}
				}
			}
			delete(m.jumpCache, key)
		}
	}

	if finder != nil {
		for _, w := range finder.WindowsForApp(target.App) {
			wid, ok := w.ID()
			if !ok {
				continue
			}
			if _, member := m.windows[m.current][wid]; !member {
				continue
			}
			if target.Title != "" && !m.matchTitle(target.Title, w.Title()) {
				continue
			}
			m.focusWindow(w)
			return
		}
	}

	if launcher == nil {
		return
	}
	if len(target.Launch) > 0 {
		if err := launcher.Launch(target.Launch); err != nil {
			m.logger.Warn("jumpToApp: launch failed", "category", category, "err", err)
		}
		return
	}
	if err := launcher.LaunchOrFocus(target.App); err != nil {
		m.logger.Warn("jumpToApp: launch_or_focus failed", "app", target.App, "err", err)
	}
}

// ToggleJump swaps focus with prevJump, ping-ponging between the two most
// recent jump targets (spec.md §4.5 "toggleJump").
func (m *Manager) ToggleJump() {
	if m.prevJump == nil {
		return
	}
	jp := *m.prevJump

	if focusedWid, ok := m.lc.Focused(m.space); ok {
		m.prevJump = &jumpPoint{workspace: m.current, windowID: focusedWid}
	}

	if jp.workspace != m.current {
		m.focused[jp.workspace] = jp.windowID
		m.SwitchTo(jp.workspace, false)
		return
	}

	if w, ok := m.windows[jp.workspace][jp.windowID]; ok {
		m.focusWindow(w)
	}
}

func (m *Manager) focusWindow(w Window) {
	wid, ok := w.ID()
	if !ok {
		return
	}
	m.lc.SetFocused(m.space, wid)
	if m.focuser != nil {
		if err := m.focuser.Focus(w); err != nil {
			m.logger.Warn("focus failed", "wid", wid, "err", err)
		}
	}
}

// cacheJumpWindow populates the jump cache when a newly created window's
// title matches category's configured pattern (spec.md §4.5: "populated
// on window creation when the title matches").
func (m *Manager) cacheJumpWindow(category string, w Window) {
	target, ok := m.cfg.JumpTargets[category][string(m.current)]
	if !ok || target.Title == "" {
		return
	}
	if w.AppName() != target.App || !m.matchTitle(target.Title, w.Title()) {
		return
	}
	key := jumpCacheKey{category: category, workspace: m.current}
	m.jumpCache[key] = jumpCacheEntry{w: w, titlePattern: target.Title}
}
