package scanner

import (
	"context"
	"time"

	"diskspace-examiner/internal/filesystem"
	"diskspace-examiner/internal/metrics"
	"diskspace-examiner/internal/tree"
)

// mode selects which children a tabulation pass descends into.
type mode int

const (
	// newOnly visits folders that were never tabulated.
	newOnly mode = iota
	// rescan visits folders last tabulated before the session started.
	rescan
)

func (m mode) selects(s tree.State, scanStart time.Time) bool {
	if m == newOnly {
		return !s.Tabulated()
	}
	return s.LastFullScan.Before(scanStart)
}

func (m mode) label() string {
	if m == newOnly {
		return "new_only"
	}
	return "rescan"
}

// fileCancelCheck is how many files are counted between cancellation checks.
const fileCancelCheck = 1024

// tabulate computes exact aggregates for node. Children the mode does not
// select are taken as already final and summed as they are.
//
// It returns early, with completed false, when a child did not complete or
// the delta gathered in this call reached DeltaThreshold. The partial delta
// has then been applied to node and must be applied by every ancestor.
// When it completes, node is finalized and the returned delta is the change
// from node's previous counters.
func (s *Scan) tabulate(ctx context.Context, node *tree.Node, path string, m mode) (bool, tree.Counters, error) {
	var delta tree.Counters
	var tally tree.Tally

	interrupt := func() (bool, tree.Counters, error) {
		node.Adjust(delta)
		return false, delta, nil
	}

	for _, child := range node.Children() {
		if s.isCancelled() {
			return interrupt()
		}
		st := child.State()
		childPath, err := filesystem.Join(path, child.Name())
		if err != nil || !m.selects(st, s.scanStart) {
			tally.AddChild(st)
			continue
		}

		completed, d, err := s.tabulate(ctx, child, childPath, m)
		if err != nil {
			return false, delta, err
		}
		delta = delta.Add(d)
		if !completed || delta.Magnitude() >= s.cfg.DeltaThreshold {
			return interrupt()
		}
		tally.AddChild(child.State())
	}

	for i, f := range s.source.Files(path) {
		if i%fileCancelCheck == 0 && s.isCancelled() {
			return interrupt()
		}
		tally.AddFile(f.Allocated, f.ModTime)
		s.countFile()
	}

	final := node.Finalize(tally, time.Now())
	s.countFolder()

	for _, child := range node.Children() {
		if child.CullDetails() {
			metrics.ScanCulledNodes.Inc()
		}
	}

	return true, final, s.maybeCommit(ctx)
}
