// Package tiling computes on-screen frames for the windows of one space
// and issues the resulting moves through a Mover. Tiling holds no state of
// its own: every call is a pure function of the State Store's current
// grid, the supplied policy, and a read of the windows' current frames.
package tiling

import (
	"fmt"

	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/state"
)

// Policy carries the layout knobs for a space: gaps applied both from the
// screen edge (canvas computation) and between adjacent columns/rows, plus
// the two scrolling-strip behaviors described by the spec.
type Policy struct {
	Gaps            geom.Insets
	ExternalBar     geom.Insets
	StickyPairs     bool
	RightAnchorLast bool
}

// FocusContext supplies the focus history tiling needs to choose an anchor
// and infer scroll direction. The caller (Window Lifecycle / Workspace
// Manager) owns focus tracking; tiling only reads it.
type FocusContext struct {
	Focused          state.WinID
	HasFocus         bool
	PrevPrevFocused  state.WinID
	HasPrevPrevFocus bool
}

// FrameQuery identifies a window to read a current frame for.
type FrameQuery struct {
	WinID state.WinID
	PID   state.PID
}

// FrameReader reads the current on-screen frame of a batch of windows.
// Implemented by internal/ax's Transport.
type FrameReader interface {
	ReadFrames(queries []FrameQuery) (map[state.WinID]geom.Frame, error)
}

// MoveOp is a single window placement to apply.
type MoveOp struct {
	WinID        state.WinID
	PID          state.PID
	Frame        geom.Frame
	PositionOnly bool
}

// Mover applies a batch of placements. Implemented by internal/ax's
// Transport.
type Mover interface {
	MoveWindows(ops []MoveOp) error
}

// TileSpace lays out every column of space on screen and applies the
// result through mover, per spec §4.3. A space with no columns is a
// no-op.
func TileSpace(store *state.Store, space state.Space, screen geom.Frame, policy Policy, focus FocusContext, reader FrameReader, mover Mover) error {
	cols := store.Columns(space)
	if len(cols) == 0 {
		return nil
	}

	queries := make([]FrameQuery, 0, len(cols)*2)
	for _, col := range cols {
		for _, w := range col {
			wid, ok := w.ID()
			if !ok {
				continue
			}
			queries = append(queries, FrameQuery{WinID: wid, PID: w.PID()})
		}
	}
	frames, err := reader.ReadFrames(queries)
	if err != nil {
		return fmt.Errorf("tile space %d: read frames: %w", space, err)
	}

	canvas := screen.Inset(policy.ExternalBar).Inset(policy.Gaps)

	anchorCol, anchorRow, ok := chooseAnchor(store, space, cols, screen, focus)
	if !ok {
		return fmt.Errorf("tile space %d: no anchor window found", space)
	}

	anchorWin := cols[anchorCol][anchorRow]
	anchorWid, ok := anchorWin.ID()
	if !ok {
		return fmt.Errorf("tile space %d: anchor window handle is stale", space)
	}
	anchorFrame, ok := frames[anchorWid]
	if !ok {
		// The AX read could not resolve the anchor (unreachable app or
		// missing window); there is no frame to lay out from, so the
		// space is left as it is.
		return nil
	}
	anchorFrame = anchorFrame.ClampSize(canvas)

	switch {
	case policy.RightAnchorLast && anchorCol == len(cols)-1 && len(cols) > 1:
		anchorFrame.X = canvas.X2() - anchorFrame.W
	case anchorCol != 0 && policy.StickyPairs:
		if scrolledLeft(store, space, anchorCol, focus, canvas.X) {
			anchorFrame.X = canvas.X
		} else {
			leftCol := cols[anchorCol-1]
			leftWid, leftOK := leftCol[0].ID()
			leftFrame := frames[leftWid]
			if leftOK && leftFrame.W+policy.Gaps.Right+anchorFrame.W <= canvas.W {
				anchorFrame.X = canvas.X + leftFrame.W + policy.Gaps.Right
			} else {
				anchorFrame.X = canvas.X
			}
		}
	default:
		anchorFrame.X = canvas.X
	}

	ops := make([]MoveOp, 0, len(queries))

	anchorColWindows := cols[anchorCol]
	if len(anchorColWindows) == 1 {
		anchorFrame.Y = canvas.Y
		anchorFrame.H = canvas.H
		ops = append(ops, MoveOp{WinID: anchorWid, PID: anchorWin.PID(), Frame: anchorFrame})
	} else {
		others := len(anchorColWindows) - 1
		evenH := (canvas.H - anchorFrame.H - float64(others)*policy.Gaps.Bottom) / float64(others)
		bounds := columnBounds{X: anchorFrame.X, X2: anchorFrame.X + anchorFrame.W, Y: canvas.Y, Y2: canvas.Y2()}
		colOps, _ := tileColumn(frames, anchorColWindows, bounds, anchorFrame.W, evenH, policy.Gaps.Bottom, &columnOverride{id: anchorWid, h: anchorFrame.H})
		ops = append(ops, colOps...)
	}

	rightMargin := canvas.X2()
	x := anchorFrame.X + anchorFrame.W + policy.Gaps.Right
	for ci := anchorCol + 1; ci < len(cols); ci++ {
		bx := x
		if bx > rightMargin {
			bx = rightMargin
		}
		bounds := columnBounds{X: bx, X2: rightMargin, Y: canvas.Y, Y2: canvas.Y2()}
		colOps, width := tileColumn(frames, cols[ci], bounds, 0, 0, policy.Gaps.Bottom, nil)
		ops = append(ops, colOps...)
		x = bx + width + policy.Gaps.Right
	}

	leftMargin := canvas.X
	x2 := anchorFrame.X - policy.Gaps.Left
	for ci := anchorCol - 1; ci >= 0; ci-- {
		bounds := columnBounds{X: leftMargin, X2: x2, Y: canvas.Y, Y2: canvas.Y2(), rightAnchored: true}
		colOps, width := tileColumn(frames, cols[ci], bounds, 0, 0, policy.Gaps.Bottom, nil)
		ops = append(ops, colOps...)
		x2 -= width + policy.Gaps.Left
	}

	for _, op := range ops {
		store.SetXPosition(space, op.WinID, op.Frame.X)
	}

	return mover.MoveWindows(ops)
}

// columnBounds is the placement box handed to tileColumn for one column.
type columnBounds struct {
	X, X2, Y, Y2  float64
	rightAnchored bool
}

type columnOverride struct {
	id state.WinID
	h  float64
}

// tileColumn lays out windows top-to-bottom inside bounds, left-anchored
// at bounds.X unless rightAnchored (then right-anchored at bounds.X2), per
// spec §4.3 "tile_column". width, if zero, is taken from the first
// window's current frame. height, if zero, leaves each row at its current
// height except the last, which always expands to fill the remaining
// bounds. override pins a specific window's height regardless of height,
// still subject to the last-row fill rule.
func tileColumn(frames map[state.WinID]geom.Frame, col state.Column, bounds columnBounds, width, height, bottomGap float64, override *columnOverride) ([]MoveOp, float64) {
	ops := make([]MoveOp, 0, len(col))

	if width <= 0 && len(col) > 0 {
		if wid, ok := col[0].ID(); ok {
			width = frames[wid].W
		}
	}

	y := bounds.Y
	for i, w := range col {
		wid, ok := w.ID()
		if !ok {
			continue
		}
		f := frames[wid]
		f.W = width
		switch {
		case override != nil && override.id == wid:
			f.H = override.h
		case height > 0:
			f.H = height
		}
		if i == len(col)-1 {
			f.H = bounds.Y2 - y
		}
		f.Y = y
		if bounds.rightAnchored {
			f.X = bounds.X2 - width
		} else {
			f.X = bounds.X
		}

		y += f.H + bottomGap
		if y > bounds.Y2 {
			y = bounds.Y2
		}

		ops = append(ops, MoveOp{WinID: wid, PID: w.PID(), Frame: f})
	}

	return ops, width
}

// chooseAnchor picks the window tiling propagates from: the focused
// window if it belongs to space and isn't floating, else the leftmost
// on-screen column's first row (spec §4.3 step 1). When no column has a
// remembered x-position yet (a freshly populated space), the first
// column is used.
func chooseAnchor(store *state.Store, space state.Space, cols []state.Column, screen geom.Frame, focus FocusContext) (col, row int, ok bool) {
	if focus.HasFocus {
		if loc, ok := store.WindowIndex(focus.Focused); ok && loc.Space == space && !store.IsFloating(focus.Focused) {
			return loc.Col, loc.Row, true
		}
	}
	ci := firstVisibleColumn(store, space, cols, screen.X)
	if ci < 0 {
		if len(cols) == 0 {
			return 0, 0, false
		}
		ci = 0
	}
	return ci, 0, true
}

// firstVisibleColumn returns the index of the column whose remembered
// x-position is smallest among those >= screenX, or, if none are
// on-screen, the column with the largest (least negative) x.
func firstVisibleColumn(store *state.Store, space state.Space, cols []state.Column, screenX float64) int {
	best, bestX := -1, 0.0
	fallback, fallbackX := -1, 0.0
	haveBest, haveFallback := false, false

	for ci, col := range cols {
		if len(col) == 0 {
			continue
		}
		wid, ok := col[0].ID()
		if !ok {
			continue
		}
		x, ok := store.XPosition(space, wid)
		if !ok {
			continue
		}
		if x >= screenX {
			if !haveBest || x < bestX {
				best, bestX, haveBest = ci, x, true
			}
		} else if !haveFallback || x > fallbackX {
			fallback, fallbackX, haveFallback = ci, x, true
		}
	}

	if haveBest {
		return best
	}
	if haveFallback {
		return fallback
	}
	return -1
}

// scrolledLeft reports whether the previous-previous-focused window sat in
// a column to the right of anchorCol (the user scrolled the strip left to
// reach the anchor), or sat in anchorCol itself with its remembered x
// already at the canvas's left edge (spec §4.3 step 3). A
// previous-previous-focused window strictly left of anchorCol is the
// sticky-pair-neighbor case, not a scrolled-left one, and never matches
// here regardless of its memoed x.
func scrolledLeft(store *state.Store, space state.Space, anchorCol int, focus FocusContext, canvasX float64) bool {
	if !focus.HasPrevPrevFocus {
		return false
	}
	loc, ok := store.WindowIndex(focus.PrevPrevFocused)
	if !ok || loc.Space != space {
		return false
	}
	if loc.Col > anchorCol {
		return true
	}
	if loc.Col < anchorCol {
		// The previous-previous-focused window sits strictly left of the
		// anchor (e.g. its sticky-pair neighbor) — that is expected
		// regardless of scroll state, so its memoed x must never confirm
		// scrolledLeft on its own.
		return false
	}
	if x, ok := store.XPosition(space, focus.PrevPrevFocused); ok && x == canvasX {
		return true
	}
	return false
}
