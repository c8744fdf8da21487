package scanner

import (
	"diskspace-examiner/internal/filesystem"
	"diskspace-examiner/internal/tree"
)

// topDown diffs every child of node before descending into any of them, so
// one call discovers structural changes at every depth before a subtree gets
// its own second-level pass. The summed delta is applied to node and
// returned, including after cancellation.
func (s *Scan) topDown(node *tree.Node, path string) tree.Counters {
	var delta tree.Counters
	children := node.Children()
	paths := make([]string, len(children))

	for i, child := range children {
		if s.isCancelled() {
			break
		}
		p, err := filesystem.Join(path, child.Name())
		if err != nil {
			continue
		}
		paths[i] = p
		delta = delta.Add(s.structuralDiff(child, p))
	}

	for i, child := range children {
		if s.isCancelled() {
			break
		}
		if paths[i] == "" {
			continue
		}
		delta = delta.Add(s.topDown(child, paths[i]))
	}

	node.Adjust(delta)
	return delta
}
