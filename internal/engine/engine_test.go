package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codexwm/codex/internal/ax"
	"github.com/codexwm/codex/internal/config"
	"github.com/codexwm/codex/internal/engine"
	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/lifecycle"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
	"github.com/codexwm/codex/internal/workspace"
)

type failingBackend struct{}

func (failingBackend) OpenApp(ctx context.Context, pid state.PID) (ax.AppSession, error) {
	return nil, errors.New("no AX access in tests")
}

type fakeScreens struct{}

func (fakeScreens) Screen(state.Space) (geom.Frame, bool) {
	return geom.Frame{X: 0, Y: 0, W: 1000, H: 800}, true
}

type fakeFocuser struct{}

func (fakeFocuser) Focus(state.Window) error { return nil }

type fakeScheduler struct{}

func (fakeScheduler) After(d time.Duration, fn func()) { fn() }

type fakeWindow struct {
	id  state.WinID
	pid state.PID
	app string
}

func (w fakeWindow) ID() (state.WinID, bool) { return w.id, true }
func (w fakeWindow) PID() state.PID          { return w.pid }
func (w fakeWindow) AppName() string         { return w.app }
func (w fakeWindow) Title() string           { return "" }
func (w fakeWindow) Maximizable() bool       { return true }
func (w fakeWindow) Tabbed() bool            { return false }

func matchTitle(pattern, title string) bool { return pattern == title }

func newTestEngine() *engine.Engine {
	cfg := config.DefaultConfig()
	cfg.Workspaces = []string{"main", "work"}
	cfg.AppRules = map[string]string{"Slack": "work"}
	return engine.New(cfg, engine.Deps{
		Space:      1,
		Policy:     tiling.Policy{Gaps: geom.Insets{Top: 8, Bottom: 8, Left: 8, Right: 8}},
		Screens:    fakeScreens{},
		Scheduler:  fakeScheduler{},
		Focuser:    fakeFocuser{},
		MatchTitle: matchTitle,
		Backend:    failingBackend{},
	})
}

func TestNewWiresEverySubsystem(t *testing.T) {
	e := newTestEngine()
	if e.Manager() == nil {
		t.Fatal("expected a non-nil Workspace Manager")
	}
	if e.Lifecycle() == nil {
		t.Fatal("expected a non-nil Window Lifecycle")
	}
	if e.Store() == nil {
		t.Fatal("expected a non-nil State Store")
	}
	if e.Transport() == nil {
		t.Fatal("expected a non-nil AX Transport")
	}
}

func TestSetupIsTolerantOfAnUnreachableAXBackend(t *testing.T) {
	e := newTestEngine()

	editor := fakeWindow{id: 1, pid: 1, app: "Editor"}
	slack := fakeWindow{id: 2, pid: 2, app: "Slack"}
	alwaysEligible := func(state.Window) bool { return true }
	if err := e.Lifecycle().AddWindow(1, editor, alwaysEligible); err != nil {
		t.Fatalf("seed editor window: %v", err)
	}
	if err := e.Lifecycle().AddWindow(1, slack, alwaysEligible); err != nil {
		t.Fatalf("seed slack window: %v", err)
	}

	e.Setup([]workspace.Window{editor, slack})

	if e.Manager().Current() != "main" {
		t.Fatalf("expected current workspace to be %q, got %q", "main", e.Manager().Current())
	}
	if !e.Store().IsHidden(2) {
		t.Error("expected Slack's window to be parked even though the AX backend is unreachable")
	}
}

func TestWatchConfigAppliesReloadsInPlace(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/workspaces.toml"
	initial := config.DefaultConfig()
	initial.Workspaces = []string{"main"}
	if err := config.Save(path, initial); err != nil {
		t.Fatalf("save initial config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	e := engine.New(cfg, engine.Deps{
		Space:      1,
		Policy:     tiling.Policy{Gaps: geom.Insets{Top: 8, Bottom: 8, Left: 8, Right: 8}},
		Screens:    fakeScreens{},
		Scheduler:  fakeScheduler{},
		Focuser:    fakeFocuser{},
		MatchTitle: matchTitle,
		Backend:    failingBackend{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := e.WatchConfig(ctx, path); err != nil {
		t.Fatalf("WatchConfig: %v", err)
	}

	updated := config.DefaultConfig()
	updated.Workspaces = []string{"main", "work"}
	updated.AppRules = map[string]string{"Slack": "work"}
	if err := config.Save(path, updated); err != nil {
		t.Fatalf("save updated config: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if len(cfg.Workspaces) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for config reload to apply")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
