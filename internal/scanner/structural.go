package scanner

import (
	"slices"
	"strings"
	"time"

	"diskspace-examiner/internal/filesystem"
	"diskspace-examiner/internal/tree"
)

// structuralDiff reconciles node's children with a fresh listing of path and
// applies the resulting change to node. It never looks at files, so the
// size and file count can only shrink here. The returned delta is what the
// caller must apply to node's ancestors.
//
// A culled node that regains children is marked untabulated, so every pass
// that finalizes its parent tabulates it first and the rediscovered children
// are counted exactly once.
//
// Matching is quadratic in the number of children: each existing child is
// searched for in the shrinking list of unmatched names.
func (s *Scan) structuralDiff(node *tree.Node, path string) tree.Counters {
	listing := s.source.Subdirectories(path)
	s.countFolder()

	node.Lock()
	defer node.Unlock()

	culled := len(node.Subfolders) == 0 && node.TotalSubfolders > 0

	var delta tree.Counters
	unmatched := slices.Clone(listing)
	for i := 0; i < len(node.Subfolders); {
		child := node.Subfolders[i]
		j := indexFold(unmatched, child.Name())
		if j < 0 {
			delta = delta.Sub(child.State().Contribution())
			node.RemoveChildLocked(i)
			continue
		}
		unmatched[j] = unmatched[len(unmatched)-1]
		unmatched = unmatched[:len(unmatched)-1]
		i++
	}

	for _, name := range unmatched {
		if _, err := filesystem.Join(path, name); err != nil {
			continue
		}
		// names that differ only by case collapse into one node
		if node.ChildIndexLocked(name) >= 0 {
			continue
		}
		node.AppendChildLocked(name)
		delta.TotalSubfolders++
	}

	if culled && delta.TotalSubfolders > 0 {
		node.LastFullScan = time.Time{}
	}
	node.AdjustLocked(delta)
	return delta
}

func indexFold(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}
