package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"diskspace-examiner/internal/filesystem"
	"diskspace-examiner/internal/logging"
	"diskspace-examiner/internal/metrics"
	"diskspace-examiner/internal/tree"
)

// ErrClosed is returned when triggering a supervisor that has stopped.
var ErrClosed = errors.New("supervisor stopped")

// Supervisor runs scan sessions for a fixed set of roots: one after another
// at startup, then again on every interval tick or manual trigger.
type Supervisor struct {
	store    Store
	source   filesystem.Source
	cfg      Config
	roots    []string
	interval time.Duration

	stopChan    chan struct{}
	stopOnce    sync.Once
	triggerChan chan struct{}
	startTime   time.Time

	mu      sync.Mutex
	current *Scan
	states  map[string]*rootState
	cycles  int
}

type rootState struct {
	last        *Scan
	tree        *tree.Node
	sessions    int
	lastError   error
	lastErrorAt time.Time
}

// RootStatus is a point-in-time view of one root.
type RootStatus struct {
	Root        string      `json:"root"`
	Running     bool        `json:"running"`
	SessionID   string      `json:"sessionId,omitempty"`
	Activity    *Activity   `json:"activity,omitempty"`
	Progress    Progress    `json:"progress"`
	StartedAt   time.Time   `json:"startedAt,omitempty"`
	FinishedAt  time.Time   `json:"finishedAt,omitempty"`
	Sessions    int         `json:"sessions"`
	LastError   string      `json:"lastError,omitempty"`
	LastErrorAt time.Time   `json:"lastErrorAt,omitempty"`
	Summary     *tree.State `json:"summary,omitempty"`
}

// NewSupervisor creates a supervisor for roots. A zero interval disables
// periodic rescans.
func NewSupervisor(store Store, source filesystem.Source, roots []string, interval time.Duration, cfg Config) *Supervisor {
	sup := &Supervisor{
		store:       store,
		source:      source,
		cfg:         cfg,
		interval:    interval,
		stopChan:    make(chan struct{}),
		triggerChan: make(chan struct{}, 1),
		startTime:   time.Now(),
		states:      make(map[string]*rootState),
	}
	for _, r := range roots {
		r = filepath.Clean(r)
		sup.roots = append(sup.roots, r)
		sup.states[r] = &rootState{}
	}
	return sup
}

// Roots returns the supervised root paths.
func (sup *Supervisor) Roots() []string {
	return append([]string(nil), sup.roots...)
}

// Run scans every root, then waits for the interval or a trigger and scans
// again, until ctx is done or Stop is called.
func (sup *Supervisor) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if sup.interval > 0 {
		ticker := time.NewTicker(sup.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	logging.Info("Scan supervisor started for %d roots (rescan interval: %v)", len(sup.roots), sup.interval)
	for {
		sup.runCycle(ctx)

		select {
		case <-tick:
			logging.Debug("Periodic rescan triggered")
		case <-sup.triggerChan:
			logging.Info("Manual rescan triggered")
		case <-ctx.Done():
			return nil
		case <-sup.stopChan:
			return nil
		}
	}
}

// Trigger requests a new cycle. A request made while a cycle is running
// starts another cycle right after it.
func (sup *Supervisor) Trigger() error {
	select {
	case <-sup.stopChan:
		return ErrClosed
	default:
	}
	select {
	case sup.triggerChan <- struct{}{}:
	default:
	}
	return nil
}

// Stop ends Run and closes the running session, waiting for it to exit.
func (sup *Supervisor) Stop() {
	sup.stopOnce.Do(func() {
		close(sup.stopChan)
	})
	sup.mu.Lock()
	current := sup.current
	sup.mu.Unlock()
	if current != nil {
		current.Close()
	}
}

func (sup *Supervisor) stopped(ctx context.Context) bool {
	select {
	case <-sup.stopChan:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (sup *Supervisor) runCycle(ctx context.Context) {
	sup.mu.Lock()
	sup.cycles++
	sup.mu.Unlock()

	for _, root := range sup.roots {
		if sup.stopped(ctx) {
			return
		}
		sup.runSession(ctx, root)
	}
}

func (sup *Supervisor) runSession(ctx context.Context, root string) {
	scan := New(root, sup.store, sup.source, sup.cfg)

	sup.mu.Lock()
	sup.current = scan
	state := sup.states[root]
	state.last = scan
	state.sessions++
	sup.mu.Unlock()

	select {
	case <-scan.Done():
	case <-ctx.Done():
		scan.Close()
	case <-sup.stopChan:
		scan.Close()
	}

	err := scan.CheckHealth()

	sup.mu.Lock()
	sup.current = nil
	if r := scan.Root(); r != nil {
		state.tree = r
	}
	if err != nil {
		state.lastError = err
		state.lastErrorAt = time.Now()
	} else if scan.Activity() == ScanComplete {
		state.lastError = nil
	}
	sup.mu.Unlock()

	if err != nil {
		logging.Error("Scan session %s failed: %v", scan.ID(), err)
	}
}

// Tree returns the latest tree for root, including one still being scanned.
func (sup *Supervisor) Tree(root string) *tree.Node {
	root = filepath.Clean(root)
	sup.mu.Lock()
	defer sup.mu.Unlock()
	state, ok := sup.states[root]
	if !ok {
		return nil
	}
	if state.last != nil {
		if r := state.last.Root(); r != nil {
			return r
		}
	}
	return state.tree
}

// IsReady reports whether every root has a tree to serve.
func (sup *Supervisor) IsReady() bool {
	for _, root := range sup.roots {
		if sup.Tree(root) == nil {
			return false
		}
	}
	return true
}

// Healthy reports whether no root's most recent session faulted.
func (sup *Supervisor) Healthy() bool {
	sup.mu.Lock()
	defer sup.mu.Unlock()
	for _, state := range sup.states {
		if state.lastError != nil {
			return false
		}
	}
	return true
}

// Status returns a snapshot of every root, in configuration order.
func (sup *Supervisor) Status() []RootStatus {
	sup.mu.Lock()
	defer sup.mu.Unlock()

	out := make([]RootStatus, 0, len(sup.roots))
	for _, root := range sup.roots {
		state := sup.states[root]
		st := RootStatus{Root: root, Sessions: state.sessions}
		treeRoot := state.tree
		if scan := state.last; scan != nil {
			activity := scan.Activity()
			st.Running = scan == sup.current
			st.SessionID = scan.ID()
			st.Activity = &activity
			st.Progress = scan.Progress()
			st.StartedAt = scan.StartedAt()
			st.FinishedAt = scan.FinishedAt()
			if r := scan.Root(); r != nil {
				treeRoot = r
			}
		}
		if state.lastError != nil {
			st.LastError = state.lastError.Error()
			st.LastErrorAt = state.lastErrorAt
		}
		if treeRoot != nil {
			summary := treeRoot.State()
			st.Summary = &summary
		}
		out = append(out, st)
	}
	return out
}

// GetStats implements metrics.StatsProvider.
func (sup *Supervisor) GetStats() []metrics.RootStats {
	statuses := sup.Status()
	stats := make([]metrics.RootStats, 0, len(statuses))
	for _, st := range statuses {
		rs := metrics.RootStats{
			Root:           st.Root,
			FilesScanned:   st.Progress.FilesScanned,
			FoldersScanned: st.Progress.FoldersScanned,
		}
		if st.Summary != nil {
			rs.Size = st.Summary.Size
			rs.Files = st.Summary.TotalFiles
			rs.Folders = st.Summary.TotalSubfolders
		}
		stats = append(stats, rs)
	}
	return stats
}

// Uptime returns how long the supervisor has existed.
func (sup *Supervisor) Uptime() time.Duration {
	return time.Since(sup.startTime)
}

// Cycles returns how many scan cycles have started.
func (sup *Supervisor) Cycles() int {
	sup.mu.Lock()
	defer sup.mu.Unlock()
	return sup.cycles
}
