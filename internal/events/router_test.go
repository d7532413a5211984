package events_test

import (
	"testing"

	"github.com/codexwm/codex/internal/events"
	"github.com/codexwm/codex/internal/state"
)

type fakeWindow struct{ id state.WinID }

func (w *fakeWindow) ID() (state.WinID, bool) { return w.id, true }
func (w *fakeWindow) PID() state.PID          { return 0 }

func TestDispatchInvokesSubscribers(t *testing.T) {
	r := events.New()
	var got []state.WinID
	r.Subscribe(events.WindowVisible, func(w state.Window) {
		wid, _ := w.ID()
		got = append(got, wid)
	})

	r.Dispatch(events.WindowVisible, &fakeWindow{id: 1})
	r.Dispatch(events.WindowDestroyed, &fakeWindow{id: 2})

	if len(got) != 1 || got[0] != 1 {
		t.Errorf("expected only WindowVisible subscriber to fire, got %v", got)
	}
}

func TestPauseSuppressesDispatch(t *testing.T) {
	r := events.New()
	calls := 0
	r.Subscribe(events.WindowFocused, func(state.Window) { calls++ })

	r.Pause()
	r.Dispatch(events.WindowFocused, &fakeWindow{id: 1})
	if calls != 0 {
		t.Errorf("expected dispatch suppressed while paused, got %d calls", calls)
	}

	r.Resume()
	r.Dispatch(events.WindowFocused, &fakeWindow{id: 1})
	if calls != 1 {
		t.Errorf("expected dispatch to resume, got %d calls", calls)
	}
}

func TestWithPausedRestoresPriorState(t *testing.T) {
	r := events.New()
	calls := 0
	r.Subscribe(events.WindowVisible, func(state.Window) { calls++ })

	r.WithPaused(func() {
		r.Dispatch(events.WindowVisible, &fakeWindow{id: 1})
	})
	if calls != 0 {
		t.Error("expected dispatch suppressed during WithPaused")
	}
	if r.Paused() {
		t.Error("expected router unpaused after WithPaused returns")
	}

	r.Dispatch(events.WindowVisible, &fakeWindow{id: 1})
	if calls != 1 {
		t.Errorf("expected dispatch to work normally afterward, got %d calls", calls)
	}

	r.Pause()
	r.WithPaused(func() {})
	if !r.Paused() {
		t.Error("expected WithPaused to restore a pre-existing paused state")
	}
}
