// Package main implements codexctl, the operator CLI described in
// SPEC_FULL.md's package map: it loads a workspace config, builds the
// full Engine (State Store, Tiling Engine, Window Lifecycle, Workspace
// Manager) over a host-provided window source, and runs it for local
// testing and demos. Real screen enumeration, OS focus, and window
// discovery are external-collaborator concerns the spec places out of
// scope (spec.md §1 Non-goals); this binary supplies file-backed and
// fixed-geometry stand-ins for those so the rest of the engine can be
// exercised end to end without a host integration.
//
// Grounded on the teacher's cmd/tuios/main.go: plain flag package,
// a version var block set by goreleaser, and signal.Notify-driven
// graceful shutdown rather than cobra+fang (reserved, per
// cmd/ax-bridge, for the wire-protocol binary that benefits from
// generated help/usage).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/codexwm/codex/internal/config"
	"github.com/codexwm/codex/internal/engine"
	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
	"github.com/codexwm/codex/internal/workspace"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath  = flag.String("config", "", "path to workspaces.toml (default: XDG config location)")
	windowsPath = flag.String("windows", "", "path to a JSON file describing the initial window list (demo/local testing only)")
	screenW     = flag.Float64("screen-width", 1920, "width of the fixed demo screen")
	screenH     = flag.Float64("screen-height", 1080, "height of the fixed demo screen")
	debug       = flag.Bool("debug", false, "enable debug logging")
	showVersion = flag.Bool("version", false, "print version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("codexctl %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built at: %s\n", date)
		os.Exit(0)
	}

	logger := log.New(os.Stderr)
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	if err := run(logger); err != nil {
		logger.Fatal("codexctl exited with an error", "err", err)
	}
}

func run(logger *log.Logger) error {
	path := *configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	logger.Info("loaded workspace config", "path", path, "workspaces", cfg.Workspaces)

	windows, err := loadDemoWindows(*windowsPath)
	if err != nil {
		return fmt.Errorf("load demo windows: %w", err)
	}
	logger.Info("loaded demo window source", "path", *windowsPath, "count", len(windows))

	screen := geom.Frame{X: 0, Y: 0, W: *screenW, H: *screenH}

	e := engine.New(cfg, engine.Deps{
		Space: 1,
		Policy: tiling.Policy{
			Gaps: geom.Insets{Top: 8, Bottom: 8, Left: 8, Right: 8},
		},
		Screens:    fixedScreen{frame: screen},
		Scheduler:  realScheduler{},
		Focuser:    logFocuser{logger: logger},
		MatchTitle: matchTitle,
		Logger:     logger,
	})

	// Setup assumes every window it is handed is already indexed in the
	// Tiling Engine's column grid (it only partitions and parks; it does
	// not insert). Seed the grid first via the Window Lifecycle, exactly
	// as a real host's startup enumeration would.
	wins := make([]workspace.Window, 0, len(windows))
	for _, w := range windows {
		if err := e.Lifecycle().AddWindow(1, w, eligible); err != nil {
			logger.Warn("skipping window during seed", "id", w.id, "err", err)
			continue
		}
		wins = append(wins, w)
	}
	e.Setup(wins)
	logger.Info("setup complete", "current", e.Manager().Current())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := e.WatchConfig(ctx, path); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	logger.Info("watching config for changes", "path", path)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
	return nil
}

// eligible mirrors internal/workspace's own tiling-eligibility rule
// (non-maximizable and tabbed windows confuse the grid, spec.md §4.4):
// codexctl has no access to that unexported predicate, so it restates it
// for the demo window source it owns.
func eligible(w state.Window) bool {
	dw, ok := w.(demoWindow)
	if !ok {
		return true
	}
	return dw.Maximizable() && !dw.Tabbed()
}

// matchTitle implements the title_rules pattern match (spec.md §6) as a
// regular expression, the natural fit for the "pattern" field when no
// glob/match library appears anywhere in the retrieved example pack.
func matchTitle(pattern, title string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return pattern == title
	}
	return re.MatchString(title)
}

type fixedScreen struct {
	frame geom.Frame
}

func (f fixedScreen) Screen(state.Space) (geom.Frame, bool) { return f.frame, true }

type logFocuser struct {
	logger *log.Logger
}

func (f logFocuser) Focus(w state.Window) error {
	wid, _ := w.ID()
	f.logger.Debug("focus requested", "wid", wid)
	return nil
}

// realScheduler runs fn on its own goroutine after d, the same shape as
// production (time.AfterFunc), since codexctl has no cooperative event
// loop of its own to hop back onto.
type realScheduler struct{}

func (realScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// demoWindow is the JSON shape of one entry in -windows: a stand-in for a
// real OS window handle, used only by this CLI's local-testing path.
type demoWindow struct {
	id          state.WinID
	pid         state.PID
	app         string
	title       string
	maximizable bool
	tabbed      bool
}

func (w demoWindow) ID() (state.WinID, bool) { return w.id, true }
func (w demoWindow) PID() state.PID          { return w.pid }
func (w demoWindow) AppName() string         { return w.app }
func (w demoWindow) Title() string           { return w.title }
func (w demoWindow) Maximizable() bool       { return w.maximizable }
func (w demoWindow) Tabbed() bool            { return w.tabbed }

type demoWindowJSON struct {
	ID          uint32 `json:"id"`
	PID         int32  `json:"pid"`
	App         string `json:"app"`
	Title       string `json:"title"`
	Maximizable bool   `json:"maximizable"`
	Tabbed      bool   `json:"tabbed"`
}

// loadDemoWindows reads the -windows JSON file. An empty path is not an
// error: codexctl simply starts with no windows, which Setup handles as
// the trivial "nothing to partition" case.
func loadDemoWindows(path string) ([]demoWindow, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []demoWindowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make([]demoWindow, 0, len(raw))
	for _, r := range raw {
		out = append(out, demoWindow{
			id:          state.WinID(r.ID),
			pid:         state.PID(r.PID),
			app:         r.App,
			title:       r.Title,
			maximizable: r.Maximizable,
			tabbed:      r.Tabbed,
		})
	}
	return out, nil
}
