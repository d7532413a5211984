package state

// Snapshot is a point-in-time copy of one space's grid and x-position
// memo, taken when a workspace is switched away from and restored when it
// is switched back to (spec.md §4.5 "switch_to"). Window references are
// shared with the live store; only the grid and map structure is copied.
type Snapshot struct {
	Columns    []Column
	XPositions map[WinID]float64
}

// SnapshotSpace captures space's current grid and x-position memo. The
// grid is still live on space afterward — callers that are vacating the
// space (e.g. parking its windows and moving to a new one) are expected to
// clear it themselves once the snapshot is taken.
func (s *Store) SnapshotSpace(space Space) Snapshot {
	cols := s.grid[space]
	out := make([]Column, len(cols))
	for i, c := range cols {
		cp := make(Column, len(c))
		copy(cp, c)
		out[i] = cp
	}
	return Snapshot{
		Columns:    out,
		XPositions: s.XPositionsSnapshot(space),
	}
}

// RestoreSpace installs snap as space's grid and x-position memo,
// replacing whatever was there, and rebuilds the reverse index for space.
func (s *Store) RestoreSpace(space Space, snap Snapshot) {
	if len(snap.Columns) == 0 {
		delete(s.grid, space)
	} else {
		s.grid[space] = snap.Columns
	}

	if len(snap.XPositions) == 0 {
		delete(s.xPositions, space)
	} else {
		m := make(map[WinID]float64, len(snap.XPositions))
		for k, v := range snap.XPositions {
			m[k] = v
		}
		s.xPositions[space] = m
	}

	s.reindexSpace(space)
}
