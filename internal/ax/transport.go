// Package ax implements the AX Transport: batched move/resize/read of
// windows via the OS Accessibility API, parallelized per application with
// per-app timeouts and animation suppression (spec.md §4.1). Transport
// satisfies internal/tiling's FrameReader and Mover interfaces.
package ax

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/codexwm/codex/internal/config"
	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
)

// WindowHandle is a located AX window within one app session.
type WindowHandle interface {
	// GetFrame reads the window's current on-screen frame.
	GetFrame() (geom.Frame, error)
	// SetFrame writes f to the window. If positionOnly, only the origin is
	// applied (spec.md §6: "w==0 && h==0 -> position only").
	SetFrame(f geom.Frame, positionOnly bool) error
}

// AppSession is a live per-PID AX connection covering one Transport batch.
// Close restores whatever animation suppression Open applied.
type AppSession interface {
	Window(wid state.WinID) (WindowHandle, error)
	Close()
}

// Backend opens per-app AX sessions. internal/ax/backend_darwin.go
// provides the cgo-backed implementation; backend_stub.go provides a
// stand-in for non-darwin builds whose OpenApp always fails. Tests supply
// their own fake backends.
type Backend interface {
	OpenApp(ctx context.Context, pid state.PID) (AppSession, error)
}

// Transport is the AX Transport described in spec.md §4.1.
type Transport struct {
	backend Backend
	logger  *log.Logger
	timeout time.Duration
	tasks   *taskRegistry
}

// New builds a Transport over backend. logger may be nil, in which case a
// discarding logger is used.
func New(backend Backend, logger *log.Logger) *Transport {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Transport{
		backend: backend,
		logger:  logger,
		timeout: config.AXOpTimeout,
		tasks:   newTaskRegistry(),
	}
}

// MoveWindows applies ops synchronously, one worker per distinct PID,
// joining before returning (spec.md §4.1 "move_windows").
func (t *Transport) MoveWindows(ops []tiling.MoveOp) error {
	return t.dispatchMoves(context.Background(), ops)
}

// MoveWindowsAsync applies ops fire-and-forget, keeping the task reachable
// in an in-flight registry until its completion callback fires, per the
// "module-wide mutable state" design note in spec.md §9. Used for parking
// the previous workspace during a switch.
func (t *Transport) MoveWindowsAsync(ops []tiling.MoveOp) {
	id := t.tasks.start()
	go func() {
		defer t.tasks.finish(id)
		if err := t.dispatchMoves(context.Background(), ops); err != nil {
			t.logger.Warn("ax: async move batch failed", "err", err)
		}
	}()
}

// ReadFrames reads the current frame of every query, grouped per PID and
// dispatched in parallel. Missing windows are omitted from the result.
func (t *Transport) ReadFrames(queries []tiling.FrameQuery) (map[state.WinID]geom.Frame, error) {
	groups := make(map[state.PID][]tiling.FrameQuery)
	for _, q := range queries {
		groups[q.PID] = append(groups[q.PID], q)
	}

	var mu sync.Mutex
	out := make(map[state.WinID]geom.Frame, len(queries))

	g, ctx := errgroup.WithContext(context.Background())
	for pid, group := range groups {
		g.Go(func() error {
			frames := t.readGroup(ctx, pid, group)
			mu.Lock()
			for wid, f := range frames {
				out[wid] = f
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("ax: read frames: %w", err)
	}
	return out, nil
}

func (t *Transport) dispatchMoves(ctx context.Context, ops []tiling.MoveOp) error {
	groups := make(map[state.PID][]tiling.MoveOp)
	for _, op := range ops {
		groups[op.PID] = append(groups[op.PID], op)
	}

	g, gctx := errgroup.WithContext(ctx)
	for pid, group := range groups {
		g.Go(func() error {
			t.applyGroup(gctx, pid, group)
			return nil
		})
	}
	return g.Wait()
}

func (t *Transport) applyGroup(ctx context.Context, pid state.PID, group []tiling.MoveOp) {
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	session, err := t.backend.OpenApp(cctx, pid)
	if err != nil {
		t.logger.Warn("ax: open app failed", "pid", pid, "err", err)
		return
	}
	defer session.Close()

	skipped := 0
	for _, op := range group {
		h, err := session.Window(op.WinID)
		if err != nil {
			t.logger.Warn("ax: window not found, skipping", "pid", pid, "wid", op.WinID, "err", err)
			skipped++
			continue
		}

		if op.PositionOnly {
			if err := h.SetFrame(op.Frame, true); err != nil {
				t.logger.Warn("ax: set position failed", "wid", op.WinID, "err", err)
				skipped++
			}
			continue
		}

		// size, position, size: macOS clamps position against the
		// current size, then may clamp size against the screen edge;
		// the second size pass recovers the requested dimensions.
		if err := h.SetFrame(op.Frame, false); err != nil {
			t.logger.Warn("ax: set size failed", "wid", op.WinID, "err", err)
			skipped++
			continue
		}
		if err := h.SetFrame(op.Frame, true); err != nil {
			t.logger.Warn("ax: set position failed", "wid", op.WinID, "err", err)
		}
		if err := h.SetFrame(op.Frame, false); err != nil {
			t.logger.Warn("ax: set size failed (recovery pass)", "wid", op.WinID, "err", err)
		}
	}

	t.logger.Debug("ax: batch complete", "pid", pid, "ops", len(group), "elapsed", time.Since(start), "skipped", skipped)
}

func (t *Transport) readGroup(ctx context.Context, pid state.PID, group []tiling.FrameQuery) map[state.WinID]geom.Frame {
	cctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out := make(map[state.WinID]geom.Frame, len(group))

	session, err := t.backend.OpenApp(cctx, pid)
	if err != nil {
		t.logger.Warn("ax: open app failed", "pid", pid, "err", err)
		return out
	}
	defer session.Close()

	for _, q := range group {
		h, err := session.Window(q.WinID)
		if err != nil {
			t.logger.Warn("ax: window not found, skipping", "pid", pid, "wid", q.WinID, "err", err)
			continue
		}
		f, err := h.GetFrame()
		if err != nil {
			t.logger.Warn("ax: read frame failed", "wid", q.WinID, "err", err)
			continue
		}
		out[q.WinID] = f
	}
	return out
}
