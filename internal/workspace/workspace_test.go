package workspace_test

import (
	"sync"
	"testing"
	"time"

	"github.com/codexwm/codex/internal/config"
	"github.com/codexwm/codex/internal/events"
	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/lifecycle"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
	"github.com/codexwm/codex/internal/workspace"
)

type fakeWindow struct {
	id          state.WinID
	pid         state.PID
	appName     string
	title       string
	maximizable bool
	tabbed      bool
}

func win(id uint32, app string) *fakeWindow {
	return &fakeWindow{id: state.WinID(id), pid: state.PID(id), appName: app, maximizable: true}
}

func (w *fakeWindow) ID() (state.WinID, bool) { return w.id, true }
func (w *fakeWindow) PID() state.PID          { return w.pid }
func (w *fakeWindow) AppName() string         { return w.appName }
func (w *fakeWindow) Title() string           { return w.title }
func (w *fakeWindow) Maximizable() bool       { return w.maximizable }
func (w *fakeWindow) Tabbed() bool            { return w.tabbed }

type fakeTransport struct {
	mu     sync.Mutex
	frames map[state.WinID]geom.Frame
	moves  int
	asyncs int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{frames: make(map[state.WinID]geom.Frame)}
}

func (t *fakeTransport) MoveWindows(ops []tiling.MoveOp) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.moves++
	for _, op := range ops {
		if op.PositionOnly {
			f := t.frames[op.WinID]
			f.X, f.Y = op.Frame.X, op.Frame.Y
			t.frames[op.WinID] = f
			continue
		}
		t.frames[op.WinID] = op.Frame
	}
	return nil
}

func (t *fakeTransport) MoveWindowsAsync(ops []tiling.MoveOp) {
	_ = t.MoveWindows(ops)
	t.mu.Lock()
	t.asyncs++
	t.mu.Unlock()
}

func (t *fakeTransport) ReadFrames(queries []tiling.FrameQuery) (map[state.WinID]geom.Frame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[state.WinID]geom.Frame, len(queries))
	for _, q := range queries {
		if f, ok := t.frames[q.WinID]; ok {
			out[q.WinID] = f
		}
	}
	return out, nil
}

type fakeScreens struct{ frame geom.Frame }

func (s *fakeScreens) Screen(state.Space) (geom.Frame, bool) { return s.frame, true }

type fakeWatcher struct{}

func (fakeWatcher) Start() {}
func (fakeWatcher) Stop()  {}

func watcherFactory(state.Window) state.Watcher { return fakeWatcher{} }

type fakeFocuser struct{ focused []state.WinID }

func (f *fakeFocuser) Focus(w state.Window) error {
	wid, _ := w.ID()
	f.focused = append(f.focused, wid)
	return nil
}

type immediateScheduler struct{ calls int }

func (s *immediateScheduler) After(d time.Duration, fn func()) {
	s.calls++
	fn()
}

func matchTitle(pattern, title string) bool { return pattern == title }

type harness struct {
	mgr       *workspace.Manager
	store     *state.Store
	lc        *lifecycle.Lifecycle
	transport *fakeTransport
	focuser   *fakeFocuser
	sched     *immediateScheduler
}

func newHarness(cfg *config.WorkspaceConfig, frames map[state.WinID]geom.Frame) *harness {
	store := state.NewStore()
	transport := newFakeTransport()
	for wid, f := range frames {
		transport.frames[wid] = f
	}
	screens := &fakeScreens{frame: geom.Frame{X: 0, Y: 0, W: 1000, H: 800}}
	lc := lifecycle.New(store, tiling.Policy{Gaps: geom.Insets{Top: 8, Bottom: 8, Left: 8, Right: 8}}, transport, transport, screens, watcherFactory, nil)
	router := events.New()
	focuser := &fakeFocuser{}
	sched := &immediateScheduler{}

	mgr := workspace.New(cfg, workspace.Deps{
		Space:      1,
		Store:      store,
		Lifecycle:  lc,
		Router:     router,
		Transport:  transport,
		Screens:    screens,
		Scheduler:  sched,
		Focuser:    focuser,
		MatchTitle: matchTitle,
	})

	return &harness{mgr: mgr, store: store, lc: lc, transport: transport, focuser: focuser, sched: sched}
}

func baseConfig() *config.WorkspaceConfig {
	cfg := config.DefaultConfig()
	cfg.Workspaces = []string{"main", "work"}
	cfg.AppRules = map[string]string{"Slack": "work"}
	return cfg
}

func alwaysEligible(state.Window) bool { return true }

// seedTiling mimics the engine's startup enumeration: every discovered
// window is added to the grid before the Workspace Manager partitions it
// by workspace (workspace.Manager.Setup only reassigns/parks windows
// already present in internal/tiling's grid).
func seedTiling(h *harness, windows ...*fakeWindow) {
	for _, w := range windows {
		if err := h.lc.AddWindow(1, w, alwaysEligible); err != nil {
			panic(err)
		}
	}
}

func TestSetupAssignsByAppRuleAndParksOffWorkspace(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(cfg, map[state.WinID]geom.Frame{
		1: {X: 0, Y: 0, W: 300, H: 700},
		2: {X: 0, Y: 0, W: 300, H: 700},
	})

	editor := win(1, "Editor")
	slack := win(2, "Slack")
	seedTiling(h, editor, slack)
	h.mgr.Setup([]workspace.Window{editor, slack})

	if h.mgr.Current() != "main" {
		t.Fatalf("expected initial workspace to be %q, got %q", "main", h.mgr.Current())
	}
	if !h.store.IsHidden(2) {
		t.Error("expected Slack's window to be parked (hidden) after setup since it belongs to 'work'")
	}
	if h.store.IsHidden(1) {
		t.Error("expected the editor window to remain visible on the initial workspace")
	}
	if h.transport.moves == 0 {
		t.Error("expected a park batch to have been issued")
	}
}

func TestSwitchToParksOldAndRestoresNew(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(cfg, map[state.WinID]geom.Frame{
		1: {X: 0, Y: 0, W: 300, H: 700},
		2: {X: 0, Y: 0, W: 300, H: 700},
	})

	editor := win(1, "Editor")
	slack := win(2, "Slack")
	seedTiling(h, editor, slack)
	h.mgr.Setup([]workspace.Window{editor, slack})

	h.mgr.SwitchTo("work", true)

	if h.mgr.Current() != "work" {
		t.Fatalf("expected current workspace to be %q, got %q", "work", h.mgr.Current())
	}
	if h.store.IsHidden(2) {
		t.Error("expected Slack's window to be visible after switching to 'work'")
	}
	if !h.store.IsHidden(1) {
		t.Error("expected the editor window to be parked after switching away from 'main'")
	}
}

func TestSwitchToSameWorkspaceIsNoOpWithoutToggleBack(t *testing.T) {
	cfg := baseConfig()
	cfg.ToggleBack = false
	h := newHarness(cfg, map[state.WinID]geom.Frame{1: {W: 300, H: 700}})
	editor := win(1, "Editor")
	seedTiling(h, editor)
	h.mgr.Setup([]workspace.Window{editor})

	movesBefore := h.transport.moves
	h.mgr.SwitchTo("main", true)
	if h.transport.moves != movesBefore {
		t.Error("expected switching to the already-current workspace to be a no-op")
	}
}

func TestOnWindowCreatedParksWindowAssignedElsewhere(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(cfg, nil)
	h.mgr.Setup(nil)

	slack := win(2, "Slack")
	h.transport.frames[2] = geom.Frame{X: 0, Y: 0, W: 300, H: 700}
	h.mgr.OnWindowCreated(slack)

	if !h.store.IsHidden(2) {
		t.Error("expected a window created for a non-current workspace to be parked")
	}
	if h.sched.calls == 0 {
		t.Error("expected the park delay to go through the scheduler")
	}
}

func TestOnWindowCreatedLeavesCurrentWorkspaceWindowTiled(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(cfg, map[state.WinID]geom.Frame{1: {W: 300, H: 700}})
	h.mgr.Setup(nil)

	editor := win(1, "Editor")
	h.mgr.OnWindowCreated(editor)

	if h.store.IsHidden(1) {
		t.Error("expected a window created for the current workspace to stay visible")
	}
}

func TestOnWindowFocusedUpdatesLifecycleAnchorForCurrentWorkspace(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(cfg, map[state.WinID]geom.Frame{
		1: {W: 300, H: 700}, 2: {W: 300, H: 700},
	})
	editor, term := win(1, "Editor"), win(2, "Editor")
	seedTiling(h, editor, term)
	h.mgr.Setup([]workspace.Window{editor, term})
	h.lc.SetFocused(1, 1)

	h.mgr.OnWindowFocused(term)

	if got, ok := h.lc.Focused(1); !ok || got != 2 {
		t.Errorf("expected lifecycle focus to move to window 2, got %v ok=%v", got, ok)
	}
}

func TestOnWindowDestroyedClearsMembership(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(cfg, map[state.WinID]geom.Frame{1: {W: 300, H: 700}})
	editor := win(1, "Editor")
	h.mgr.Setup([]workspace.Window{editor})

	h.mgr.OnWindowDestroyed(editor)

	stats := h.mgr.Stats()
	for _, s := range stats {
		if s.Workspace == "main" && s.Windows != 0 {
			t.Errorf("expected main workspace to have 0 windows after destroy, got %d", s.Windows)
		}
	}
}

func TestMoveWindowToMovesFocusedWindowAndParksIt(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(cfg, map[state.WinID]geom.Frame{
		1: {X: 0, Y: 0, W: 300, H: 700},
		3: {X: 310, Y: 0, W: 300, H: 700},
	})
	w1 := win(1, "Editor")
	w3 := win(3, "Editor")
	seedTiling(h, w1, w3)
	h.mgr.Setup([]workspace.Window{w1, w3})
	h.lc.SetFocused(1, 1)

	h.mgr.MoveWindowTo("work")

	stats := h.mgr.Stats()
	var workCount int
	for _, s := range stats {
		if s.Workspace == "work" {
			workCount = s.Windows
		}
	}
	if workCount != 1 {
		t.Errorf("expected 1 window moved into 'work', got %d", workCount)
	}
	if !h.store.IsHidden(1) {
		t.Error("expected the moved window to be parked since 'work' isn't current")
	}
}
