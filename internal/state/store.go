package state

// Store is the per-process State Store described in spec.md §4.2. All
// methods assume single-goroutine access (spec.md §5).
type Store struct {
	grid       map[Space][]Column
	index      map[WinID]Location
	xPositions map[Space]map[WinID]float64
	hidden     map[WinID]bool
	floating   map[WinID]bool
	watchers   map[WinID]Watcher
}

// NewStore returns an empty Store.
func NewStore() *Store {
	s := &Store{}
	s.Clear()
	return s
}

// Clear resets everything, as used on start/stop (spec.md §4.2).
func (s *Store) Clear() {
	s.grid = make(map[Space][]Column)
	s.index = make(map[WinID]Location)
	s.xPositions = make(map[Space]map[WinID]float64)
	s.hidden = make(map[WinID]bool)
	s.floating = make(map[WinID]bool)
	s.watchers = make(map[WinID]Watcher)
}

// Columns returns a snapshot of space's column grid. The outer slice is a
// copy; each Column (and the Window refs within it) is shared with the
// store, so mutating a returned Column's contents in place is undefined —
// use SetColumn/InsertColumn/RemoveColumn instead.
func (s *Store) Columns(space Space) []Column {
	cols := s.grid[space]
	out := make([]Column, len(cols))
	copy(out, cols)
	return out
}

// ColumnCount returns the number of columns on space.
func (s *Store) ColumnCount(space Space) int {
	return len(s.grid[space])
}

// Column returns the column at idx, or nil if out of range.
func (s *Store) Column(space Space, idx int) Column {
	cols := s.grid[space]
	if idx < 0 || idx >= len(cols) {
		return nil
	}
	return cols[idx]
}

// SetColumn replaces the column at idx with col. An empty col is purged
// eagerly (spec.md §3). An idx outside space's current columns is
// ignored; SetColumn does not create the space entry.
func (s *Store) SetColumn(space Space, idx int, col Column) {
	if len(col) == 0 {
		s.RemoveColumn(space, idx)
		return
	}
	cols := s.grid[space]
	if idx < 0 || idx >= len(cols) {
		return
	}
	cols[idx] = col
	s.reindexSpace(space)
}

// InsertColumn inserts col at idx (clamped to [0, len]), auto-creating the
// space entry. Inserting an empty column is a no-op.
func (s *Store) InsertColumn(space Space, idx int, col Column) {
	if len(col) == 0 {
		return
	}
	cols := s.grid[space]
	if idx < 0 {
		idx = 0
	}
	if idx > len(cols) {
		idx = len(cols)
	}
	cols = append(cols, nil)
	copy(cols[idx+1:], cols[idx:])
	cols[idx] = col
	s.grid[space] = cols
	s.reindexSpace(space)
}

// AppendColumn appends col to space and returns its index.
func (s *Store) AppendColumn(space Space, col Column) int {
	s.InsertColumn(space, len(s.grid[space]), col)
	return len(s.grid[space]) - 1
}

// RemoveColumn deletes the column at idx. Empty spaces drop their entry
// (spec.md §3).
func (s *Store) RemoveColumn(space Space, idx int) {
	cols := s.grid[space]
	if idx < 0 || idx >= len(cols) {
		return
	}
	for _, w := range cols[idx] {
		s.forgetIndex(w)
	}
	cols = append(cols[:idx], cols[idx+1:]...)
	if len(cols) == 0 {
		delete(s.grid, space)
		return
	}
	s.grid[space] = cols
	s.reindexSpace(space)
}

// PruneEmpty removes empty columns from space and drops the space entry if
// it has no columns left.
func (s *Store) PruneEmpty(space Space) {
	cols := s.grid[space]
	out := cols[:0]
	for _, c := range cols {
		if len(c) > 0 {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		delete(s.grid, space)
		return
	}
	s.grid[space] = out
	s.reindexSpace(space)
}

// WindowIndex returns wid's location if it is currently gridded. It only
// reports; removing a window from the grid is RemoveWindowByID's job.
func (s *Store) WindowIndex(wid WinID) (Location, bool) {
	loc, ok := s.index[wid]
	return loc, ok
}

// WindowIDsInSpace returns the set of window ids currently gridded on
// space.
func (s *Store) WindowIDsInSpace(space Space) map[WinID]bool {
	out := make(map[WinID]bool)
	for _, col := range s.grid[space] {
		for _, w := range col {
			if wid, ok := w.ID(); ok {
				out[wid] = true
			}
		}
	}
	return out
}

// reindexSpace rebuilds the reverse-index entries for space from scratch.
// Called after any structural mutation so the index stays coherent with
// the grid (spec.md §3 invariant).
func (s *Store) reindexSpace(space Space) {
	for wid, loc := range s.index {
		if loc.Space == space {
			delete(s.index, wid)
		}
	}
	for ci, col := range s.grid[space] {
		for ri, w := range col {
			wid, ok := w.ID()
			if !ok {
				continue
			}
			s.index[wid] = Location{Space: space, Col: ci, Row: ri}
		}
	}
}

func (s *Store) forgetIndex(w Window) {
	if wid, ok := w.ID(); ok {
		delete(s.index, wid)
	}
}

// RemoveWindowByID removes wid from wherever it is gridded, pruning any
// now-empty column/space, and clears its x-position, hidden and floating
// entries. Its watcher, if any, is stopped but kept registered — every
// current caller uses this to park a window that is still alive (not to
// destroy one), and EnsureWatchers needs the registration to restart it
// later. It is idempotent.
func (s *Store) RemoveWindowByID(wid WinID) {
	loc, ok := s.index[wid]
	if ok {
		cols := s.grid[loc.Space]
		if loc.Col >= 0 && loc.Col < len(cols) {
			col := cols[loc.Col]
			if loc.Row >= 0 && loc.Row < len(col) {
				col = append(col[:loc.Row], col[loc.Row+1:]...)
				if len(col) == 0 {
					s.RemoveColumn(loc.Space, loc.Col)
				} else {
					cols[loc.Col] = col
					s.reindexSpace(loc.Space)
				}
			}
		}
		s.DeleteXPosition(loc.Space, wid)
	}
	delete(s.index, wid)
	delete(s.hidden, wid)
	delete(s.floating, wid)
	s.StopWatcher(wid)
}

// XPosition returns the remembered scroll-anchor x for wid on space, and
// whether an entry exists.
func (s *Store) XPosition(space Space, wid WinID) (float64, bool) {
	m, ok := s.xPositions[space]
	if !ok {
		return 0, false
	}
	x, ok := m[wid]
	return x, ok
}

// SetXPosition remembers x as wid's scroll-anchor position on space,
// auto-creating the per-space map on first use (spec.md §9 design note).
func (s *Store) SetXPosition(space Space, wid WinID, x float64) {
	m, ok := s.xPositions[space]
	if !ok {
		m = make(map[WinID]float64)
		s.xPositions[space] = m
	}
	m[wid] = x
}

// DeleteXPosition forgets wid's remembered x-position on space, purging
// the per-space map once it is empty.
func (s *Store) DeleteXPosition(space Space, wid WinID) {
	m, ok := s.xPositions[space]
	if !ok {
		return
	}
	delete(m, wid)
	if len(m) == 0 {
		delete(s.xPositions, space)
	}
}

// XPositionsSnapshot returns a copy of space's x-position memo.
func (s *Store) XPositionsSnapshot(space Space) map[WinID]float64 {
	m := s.xPositions[space]
	out := make(map[WinID]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SetHidden marks wid as parked off-screen (or not).
func (s *Store) SetHidden(wid WinID, hidden bool) {
	if hidden {
		s.hidden[wid] = true
	} else {
		delete(s.hidden, wid)
	}
}

// IsHidden reports whether wid is currently parked off-screen.
func (s *Store) IsHidden(wid WinID) bool {
	return s.hidden[wid]
}

// SetFloating marks wid as excluded from tiling (or not).
func (s *Store) SetFloating(wid WinID, floating bool) {
	if floating {
		s.floating[wid] = true
	} else {
		delete(s.floating, wid)
	}
}

// IsFloating reports whether wid is excluded from tiling.
func (s *Store) IsFloating(wid WinID) bool {
	return s.floating[wid]
}

// CreateWatcher builds a watcher for w via factory, stores it keyed by w's
// id, and starts it. A pre-existing watcher for the same id is stopped
// first. Returns false if w has no stable id.
func (s *Store) CreateWatcher(w Window, factory WatcherFactory) bool {
	wid, ok := w.ID()
	if !ok {
		return false
	}
	s.StopWatcher(wid)
	watcher := factory(w)
	s.watchers[wid] = watcher
	watcher.Start()
	return true
}

// StopWatcher stops (without forgetting) the watcher for wid, if any. Used
// to suppress OS-move feedback loops around programmatic writes.
func (s *Store) StopWatcher(wid WinID) {
	if w, ok := s.watchers[wid]; ok {
		w.Stop()
	}
}

// StartWatcher (re)starts the watcher for wid, if any — the counterpart to
// StopWatcher around programmatic writes.
func (s *Store) StartWatcher(wid WinID) {
	if w, ok := s.watchers[wid]; ok {
		w.Start()
	}
}

// DeleteWatcher stops and forgets the watcher for wid.
func (s *Store) DeleteWatcher(wid WinID) {
	if w, ok := s.watchers[wid]; ok {
		w.Stop()
		delete(s.watchers, wid)
	}
}

// StopAllWatchers stops every registered watcher without forgetting them,
// used around bulk programmatic moves (e.g. a full space switch).
func (s *Store) StopAllWatchers() {
	for _, w := range s.watchers {
		w.Stop()
	}
}

// EnsureWatchers creates a watcher (via factory) for any currently
// gridded, non-hidden window in space that lacks one, and restarts any
// that already exist (spec.md §4.2 "ensure_watchers(space)"). Used after
// RestoreSpace to recreate watchers for windows that were parked — and so
// had their watcher stopped but not forgotten, see RemoveWindowByID —
// while this workspace was inactive.
func (s *Store) EnsureWatchers(space Space, factory WatcherFactory) {
	for _, col := range s.grid[space] {
		for _, w := range col {
			wid, ok := w.ID()
			if !ok || s.hidden[wid] {
				continue
			}
			if existing, ok := s.watchers[wid]; ok {
				existing.Start()
				continue
			}
			watcher := factory(w)
			s.watchers[wid] = watcher
			watcher.Start()
		}
	}
}
