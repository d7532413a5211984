// Package geom provides the frame and point value types shared by the
// tiling engine, state store, and AX transport.
package geom

// Point is a device-independent-point coordinate.
type Point struct {
	X, Y float64
}

// Frame is a window's on-screen rectangle in device-independent points.
type Frame struct {
	X, Y, W, H float64
}

// X2 returns the right edge of the frame.
func (f Frame) X2() float64 { return f.X + f.W }

// Y2 returns the bottom edge of the frame.
func (f Frame) Y2() float64 { return f.Y + f.H }

// Equal reports whether two frames describe the same rectangle.
func (f Frame) Equal(o Frame) bool {
	return f.X == o.X && f.Y == o.Y && f.W == o.W && f.H == o.H
}

// IsZero reports whether both the width and the height are zero.
func (f Frame) IsZero() bool {
	return f.W == 0 && f.H == 0
}

// Insets is the per-side gap subtracted from a screen to produce a canvas.
type Insets struct {
	Top, Bottom, Left, Right float64
}

// Inset shrinks f by the given insets.
func (f Frame) Inset(in Insets) Frame {
	return Frame{
		X: f.X + in.Left,
		Y: f.Y + in.Top,
		W: f.W - in.Left - in.Right,
		H: f.H - in.Top - in.Bottom,
	}
}

// ClampSize returns f with width and height capped to fit within bound.
func (f Frame) ClampSize(bound Frame) Frame {
	w, h := f.W, f.H
	if w > bound.W {
		w = bound.W
	}
	if h > bound.H {
		h = bound.H
	}
	return Frame{X: f.X, Y: f.Y, W: w, H: h}
}
