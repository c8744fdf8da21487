package tree

import (
	"path/filepath"
	"strings"
	"sync"
	"time"
	"weak"
)

// Retention thresholds for CullDetails.
const (
	CullSizeThreshold    int64 = 1 << 20
	CullEntriesThreshold int64 = 50
)

// Node is one directory summary. Name and the parent link are fixed at
// creation; every other field is guarded by the node's mutex. Code outside
// a scan should read through Snapshot, State and Children, which take the
// lock; the exported fields may only be touched between Lock and Unlock.
type Node struct {
	mu     sync.Mutex
	name   string
	parent weak.Pointer[Node]

	Size            int64
	TotalFiles      int64
	TotalSubfolders int64
	Oldest          time.Time
	Newest          time.Time
	// LastFullScan is the zero time until the node is tabulated.
	LastFullScan time.Time
	Subfolders   []*Node
}

// Summary is a consistent copy of a node's fields taken under its lock.
type Summary struct {
	Name string
	State
	Subfolders int
}

// NewRoot returns an empty, never-tabulated node whose name is the full
// path of the directory it describes.
func NewRoot(path string) *Node {
	return &Node{name: path}
}

// Name returns the folder name (the full path for a root).
func (n *Node) Name() string {
	return n.name
}

// Parent returns the parent node, or nil for a root or a node whose parent
// is gone.
func (n *Node) Parent() *Node {
	return n.parent.Value()
}

// FullPath rebuilds the node's path from the parent chain.
func (n *Node) FullPath() string {
	var names []string
	for cur := n; cur != nil; cur = cur.Parent() {
		names = append(names, cur.name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return filepath.Join(names...)
}

// Lock acquires the node's mutex.
func (n *Node) Lock() {
	n.mu.Lock()
}

// Unlock releases the node's mutex.
func (n *Node) Unlock() {
	n.mu.Unlock()
}

// StateLocked returns the node's values. The caller holds the lock.
func (n *Node) StateLocked() State {
	return State{
		Counters: Counters{
			Size:            n.Size,
			TotalFiles:      n.TotalFiles,
			TotalSubfolders: n.TotalSubfolders,
		},
		Oldest:       n.Oldest,
		Newest:       n.Newest,
		LastFullScan: n.LastFullScan,
	}
}

// State returns the node's values under its lock.
func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.StateLocked()
}

// SetStateLocked overwrites every value. Used when loading persisted trees.
func (n *Node) SetStateLocked(s State) {
	n.Size = s.Size
	n.TotalFiles = s.TotalFiles
	n.TotalSubfolders = s.TotalSubfolders
	n.Oldest = s.Oldest
	n.Newest = s.Newest
	n.LastFullScan = s.LastFullScan
}

// Snapshot returns a consistent summary of the node.
func (n *Node) Snapshot() Summary {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Summary{Name: n.name, State: n.StateLocked(), Subfolders: len(n.Subfolders)}
}

// Children returns a copy of the Subfolders slice.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Node, len(n.Subfolders))
	copy(out, n.Subfolders)
	return out
}

// Child finds an immediate child by case-insensitive name.
func (n *Node) Child(name string) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if i := n.ChildIndexLocked(name); i >= 0 {
		return n.Subfolders[i]
	}
	return nil
}

// ChildIndexLocked returns the index of the child matching name, or -1.
func (n *Node) ChildIndexLocked(name string) int {
	for i, c := range n.Subfolders {
		if strings.EqualFold(c.name, name) {
			return i
		}
	}
	return -1
}

// AppendChildLocked creates an empty child parented to n and appends it.
// The caller holds n's lock and has checked the name is not taken.
func (n *Node) AppendChildLocked(name string) *Node {
	child := &Node{name: name, parent: weak.Make(n)}
	n.Subfolders = append(n.Subfolders, child)
	return child
}

// RemoveChildLocked drops the child at index i. Order is not preserved.
func (n *Node) RemoveChildLocked(i int) {
	last := len(n.Subfolders) - 1
	n.Subfolders[i] = n.Subfolders[last]
	n.Subfolders[last] = nil
	n.Subfolders = n.Subfolders[:last]
}

// Adjust adds delta into the node's counters under its lock.
func (n *Node) Adjust(delta Counters) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.AdjustLocked(delta)
}

// AdjustLocked is Adjust for a caller that already holds the lock. Counters
// never go below zero.
func (n *Node) AdjustLocked(delta Counters) {
	n.Size = max(n.Size+delta.Size, 0)
	n.TotalFiles = max(n.TotalFiles+delta.TotalFiles, 0)
	n.TotalSubfolders = max(n.TotalSubfolders+delta.TotalSubfolders, 0)
}

// Finalize overwrites the node's aggregates with an exact tally, stamps
// LastFullScan, and returns the difference from the previous counters.
func (n *Node) Finalize(t Tally, at time.Time) Counters {
	n.mu.Lock()
	defer n.mu.Unlock()
	previous := n.StateLocked().Counters
	n.Size = t.Size
	n.TotalFiles = t.TotalFiles
	n.TotalSubfolders = t.TotalSubfolders
	n.Oldest = t.Oldest
	n.Newest = t.Newest
	n.LastFullScan = at
	return t.Counters.Sub(previous)
}

// CullDetails discards Subfolders when the node is below the retention
// thresholds, keeping its aggregates. Reports whether anything was dropped.
func (n *Node) CullDetails() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Size >= CullSizeThreshold || n.TotalFiles+n.TotalSubfolders >= CullEntriesThreshold {
		return false
	}
	if len(n.Subfolders) == 0 {
		return false
	}
	n.Subfolders = nil
	return true
}

// Lookup descends from n along the given relative path, matching names
// case-insensitively. An empty path returns n.
func (n *Node) Lookup(rel string) *Node {
	cur := n
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "" || part == "." {
			continue
		}
		cur = cur.Child(part)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// CloneAsRoot deep-copies the subtree under n into a new detached tree
// whose root is named path.
func (n *Node) CloneAsRoot(path string) *Node {
	root := NewRoot(path)
	n.copyInto(root)
	return root
}

func (n *Node) copyInto(dst *Node) {
	n.mu.Lock()
	state := n.StateLocked()
	children := make([]*Node, len(n.Subfolders))
	copy(children, n.Subfolders)
	n.mu.Unlock()

	dst.mu.Lock()
	dst.SetStateLocked(state)
	copies := make([]*Node, len(children))
	for i, c := range children {
		copies[i] = dst.AppendChildLocked(c.name)
	}
	dst.mu.Unlock()

	for i, c := range children {
		c.copyInto(copies[i])
	}
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, s Summary) bool) {
	if !fn(n, n.Snapshot()) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}
