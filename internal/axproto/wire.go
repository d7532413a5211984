// Package axproto defines the wire types exchanged with the AX Transport
// binary (cmd/ax-bridge) over stdin/stdout JSON, per spec.md §6.
package axproto

// Op is one requested move/resize/read, keyed by window id and pid.
type Op struct {
	WinID    uint32  `json:"wid"`
	PID      int32   `json:"pid"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Save     bool    `json:"save,omitempty"`
	ReadOnly bool    `json:"read_only,omitempty"`
}

// PositionOnly reports whether op should only move (not resize) the
// window, per spec.md §6: "w==0 && h==0 -> position only".
func (op Op) PositionOnly() bool {
	return op.W == 0 && op.H == 0
}

// Frame is the saved or read-only frame returned for an Op with Save or
// ReadOnly set.
type Frame struct {
	WinID uint32  `json:"wid"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
}
