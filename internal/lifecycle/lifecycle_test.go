package lifecycle_test

import (
	"testing"
	"time"

	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/lifecycle"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
)

type fakeWindow struct {
	id  state.WinID
	pid state.PID
}

func (w *fakeWindow) ID() (state.WinID, bool) { return w.id, true }
func (w *fakeWindow) PID() state.PID          { return w.pid }

func win(id uint32) *fakeWindow {
	return &fakeWindow{id: state.WinID(id), pid: state.PID(id)}
}

type fakeReader struct {
	frames map[state.WinID]geom.Frame
}

func (r *fakeReader) ReadFrames(queries []tiling.FrameQuery) (map[state.WinID]geom.Frame, error) {
	out := make(map[state.WinID]geom.Frame, len(queries))
	for _, q := range queries {
		if f, ok := r.frames[q.WinID]; ok {
			out[q.WinID] = f
		}
	}
	return out, nil
}

type fakeMover struct {
	calls int
}

func (m *fakeMover) MoveWindows(ops []tiling.MoveOp) error {
	m.calls++
	return nil
}

type fakeScreens struct {
	frame geom.Frame
}

func (s *fakeScreens) Screen(state.Space) (geom.Frame, bool) { return s.frame, true }

type fakeWatcher struct{}

func (fakeWatcher) Start() {}
func (fakeWatcher) Stop()  {}

func watcherFactory(state.Window) state.Watcher { return fakeWatcher{} }

type fakeFocuser struct {
	focused []state.WinID
}

func (f *fakeFocuser) Focus(w state.Window) error {
	wid, _ := w.ID()
	f.focused = append(f.focused, wid)
	return nil
}

func newLifecycle(frames map[state.WinID]geom.Frame) (*lifecycle.Lifecycle, *state.Store, *fakeMover) {
	s := state.NewStore()
	reader := &fakeReader{frames: frames}
	mover := &fakeMover{}
	screens := &fakeScreens{frame: geom.Frame{X: 0, Y: 0, W: 1000, H: 768}}
	lc := lifecycle.New(s, tiling.Policy{Gaps: geom.Insets{Top: 8, Bottom: 8, Left: 8, Right: 8}}, reader, mover, screens, watcherFactory, nil)
	return lc, s, mover
}

func TestAddWindowInsertsAndTiles(t *testing.T) {
	lc, s, mover := newLifecycle(map[state.WinID]geom.Frame{
		1: {X: 0, Y: 0, W: 300, H: 700},
	})
	w1 := win(1)

	if err := lc.AddWindow(1, w1, nil); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if s.ColumnCount(1) != 1 {
		t.Fatalf("expected 1 column, got %d", s.ColumnCount(1))
	}
	if mover.calls == 0 {
		t.Error("expected a tile pass to issue moves")
	}

	// adding the same window again is a no-op
	if err := lc.AddWindow(1, w1, nil); err != nil {
		t.Fatalf("AddWindow (dup): %v", err)
	}
	if s.ColumnCount(1) != 1 {
		t.Error("expected duplicate add to be ignored")
	}
}

func TestAddWindowSkipsIneligible(t *testing.T) {
	lc, s, _ := newLifecycle(map[state.WinID]geom.Frame{1: {W: 300, H: 700}})
	w1 := win(1)

	never := func(state.Window) bool { return false }
	if err := lc.AddWindow(1, w1, never); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if s.ColumnCount(1) != 0 {
		t.Error("expected ineligible window to be skipped")
	}
}

func TestRemoveWindowFocusesNeighbor(t *testing.T) {
	lc, s, _ := newLifecycle(map[state.WinID]geom.Frame{
		1: {W: 300, H: 700}, 2: {W: 300, H: 700},
	})
	w1, w2 := win(1), win(2)
	lc.AddWindow(1, w1, nil)
	lc.AddWindow(1, w2, nil)
	lc.SetFocused(1, 1)

	if err := lc.RemoveWindow(1, 1, false); err != nil {
		t.Fatalf("RemoveWindow: %v", err)
	}
	if _, ok := s.WindowIndex(1); ok {
		t.Error("expected window 1 removed")
	}
	focused, ok := lc.Focused(1)
	if !ok || focused != 2 {
		t.Errorf("expected neighbor window 2 focused, got %v ok=%v", focused, ok)
	}
}

func TestFocusWindowDirectional(t *testing.T) {
	lc, _, _ := newLifecycle(map[state.WinID]geom.Frame{
		1: {W: 300, H: 700}, 2: {W: 300, H: 700},
	})
	w1, w2 := win(1), win(2)
	lc.AddWindow(1, w1, nil)
	lc.AddWindow(1, w2, nil)
	lc.SetFocused(1, 1)

	focuser := &fakeFocuser{}
	if err := lc.FocusWindow(1, lifecycle.Right, focuser, 0); err != nil {
		t.Fatalf("FocusWindow: %v", err)
	}
	if len(focuser.focused) != 1 || focuser.focused[0] != 2 {
		t.Errorf("expected focus to move to window 2, got %v", focuser.focused)
	}
	got, ok := lc.Focused(1)
	if !ok || got != 2 {
		t.Errorf("expected tracked focus to be window 2, got %v ok=%v", got, ok)
	}
}

func TestSwapWindowsLeftRight(t *testing.T) {
	lc, s, _ := newLifecycle(map[state.WinID]geom.Frame{
		1: {W: 300, H: 700}, 2: {W: 300, H: 700},
	})
	w1, w2 := win(1), win(2)
	lc.AddWindow(1, w1, nil)
	lc.AddWindow(1, w2, nil)
	lc.SetFocused(1, 1)

	if err := lc.SwapWindows(1, lifecycle.Right); err != nil {
		t.Fatalf("SwapWindows: %v", err)
	}

	loc, ok := s.WindowIndex(1)
	if !ok || loc.Col != 1 {
		t.Errorf("expected window 1 to move to column 1, got %+v ok=%v", loc, ok)
	}
	loc2, ok := s.WindowIndex(2)
	if !ok || loc2.Col != 0 {
		t.Errorf("expected window 2 to move to column 0, got %+v ok=%v", loc2, ok)
	}
}

func TestSlurpAndBarf(t *testing.T) {
	lc, s, _ := newLifecycle(map[state.WinID]geom.Frame{
		1: {W: 300, H: 700}, 2: {W: 300, H: 700},
	})
	w1, w2 := win(1), win(2)
	lc.AddWindow(1, w1, nil)
	lc.AddWindow(1, w2, nil)
	lc.SetFocused(1, 2)

	if err := lc.SlurpWindow(1); err != nil {
		t.Fatalf("SlurpWindow: %v", err)
	}
	if s.ColumnCount(1) != 1 {
		t.Fatalf("expected slurp to merge into a single column, got %d", s.ColumnCount(1))
	}

	lc.SetFocused(1, 2)
	if err := lc.BarfWindow(1); err != nil {
		t.Fatalf("BarfWindow: %v", err)
	}
	if s.ColumnCount(1) != 2 {
		t.Fatalf("expected barf to split back into two columns, got %d", s.ColumnCount(1))
	}
}

func TestSlurpWindowInLeftmostColumnIsNoOp(t *testing.T) {
	lc, s, _ := newLifecycle(map[state.WinID]geom.Frame{
		1: {W: 300, H: 700}, 2: {W: 300, H: 700},
	})
	w1, w2 := win(1), win(2)
	lc.AddWindow(1, w1, nil)
	lc.AddWindow(1, w2, nil)
	lc.SetFocused(1, 1)

	if err := lc.SlurpWindow(1); err != nil {
		t.Fatalf("SlurpWindow: %v", err)
	}
	if got := s.ColumnCount(1); got != 2 {
		t.Fatalf("expected leftmost-column slurp to be a no-op leaving 2 columns, got %d", got)
	}
	loc1, ok := s.WindowIndex(1)
	if !ok || loc1.Col != 0 {
		t.Errorf("expected window 1 to remain in column 0, got %+v ok=%v", loc1, ok)
	}
	loc2, ok := s.WindowIndex(2)
	if !ok || loc2.Col != 1 {
		t.Errorf("expected window 2 to remain in column 1, got %+v ok=%v", loc2, ok)
	}
}

func TestMoveWindowSkipsUnchangedFrame(t *testing.T) {
	lc, _, mover := newLifecycle(map[state.WinID]geom.Frame{
		1: {X: 10, Y: 10, W: 300, H: 700},
	})
	err := lc.MoveWindow(1, 1, geom.Frame{X: 10, Y: 10, W: 300, H: 700}, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("MoveWindow: %v", err)
	}
	if mover.calls != 0 {
		t.Errorf("expected no move for an unchanged frame, got %d calls", mover.calls)
	}

	err = lc.MoveWindow(1, 1, geom.Frame{X: 50, Y: 10, W: 300, H: 700}, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("MoveWindow: %v", err)
	}
	if mover.calls != 1 {
		t.Errorf("expected a move for a changed frame, got %d calls", mover.calls)
	}
}

func TestRefreshWindowsAddsUnindexed(t *testing.T) {
	lc, s, _ := newLifecycle(map[state.WinID]geom.Frame{
		1: {W: 300, H: 700}, 2: {W: 300, H: 700},
	})
	w1, w2 := win(1), win(2)
	lc.AddWindow(1, w1, nil)

	if err := lc.RefreshWindows(1, []state.Window{w1, w2}, nil); err != nil {
		t.Fatalf("RefreshWindows: %v", err)
	}
	if s.ColumnCount(1) != 2 {
		t.Errorf("expected window 2 to be added by refresh, got %d columns", s.ColumnCount(1))
	}
}
