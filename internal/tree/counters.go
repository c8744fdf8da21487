package tree

import "time"

// Counters is a (Size, TotalFiles, TotalSubfolders) triple. As a delta it is
// an unapplied change that combines by addition and reaches a node only
// through Adjust.
type Counters struct {
	Size            int64 `json:"size"`
	TotalFiles      int64 `json:"totalFiles"`
	TotalSubfolders int64 `json:"totalSubfolders"`
}

// Add returns c + o.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		Size:            c.Size + o.Size,
		TotalFiles:      c.TotalFiles + o.TotalFiles,
		TotalSubfolders: c.TotalSubfolders + o.TotalSubfolders,
	}
}

// Sub returns c - o.
func (c Counters) Sub(o Counters) Counters {
	return Counters{
		Size:            c.Size - o.Size,
		TotalFiles:      c.TotalFiles - o.TotalFiles,
		TotalSubfolders: c.TotalSubfolders - o.TotalSubfolders,
	}
}

// IsZero reports whether all three fields are zero.
func (c Counters) IsZero() bool {
	return c == Counters{}
}

// Magnitude is the absolute size change, used for interruption thresholds.
func (c Counters) Magnitude() int64 {
	if c.Size < 0 {
		return -c.Size
	}
	return c.Size
}

// Contribution is what a child folder adds to its parent's aggregates:
// its own totals plus one for the folder itself.
func (c Counters) Contribution() Counters {
	c.TotalSubfolders++
	return c
}

// State is the full set of per-node values, without children.
type State struct {
	Counters
	Oldest       time.Time `json:"oldest"`
	Newest       time.Time `json:"newest"`
	LastFullScan time.Time `json:"lastFullScan"`
}

// Tabulated reports whether the node has ever been tabulated exactly.
func (s State) Tabulated() bool {
	return !s.LastFullScan.IsZero()
}

// Tally accumulates exact aggregates for one folder during tabulation.
type Tally struct {
	Counters
	Oldest time.Time
	Newest time.Time
}

// AddFile counts one file with the given allocated size and write time.
func (t *Tally) AddFile(allocated int64, modTime time.Time) {
	t.Size += allocated
	t.TotalFiles++
	t.widen(modTime, modTime)
}

// AddChild folds a finalized child folder into the tally.
func (t *Tally) AddChild(s State) {
	t.Counters = t.Counters.Add(s.Counters.Contribution())
	if s.TotalFiles > 0 {
		t.widen(s.Oldest, s.Newest)
	}
}

func (t *Tally) widen(oldest, newest time.Time) {
	if !oldest.IsZero() && (t.Oldest.IsZero() || oldest.Before(t.Oldest)) {
		t.Oldest = oldest
	}
	if !newest.IsZero() && newest.After(t.Newest) {
		t.Newest = newest
	}
}
