package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"diskspace-examiner/internal/filesystem"
	"diskspace-examiner/internal/logging"
	"diskspace-examiner/internal/metrics"
	"diskspace-examiner/internal/tree"
)

// Store persists trees between sessions. A session holds the store's lock
// from start to finish.
type Store interface {
	sync.Locker
	// Find returns the last known tree for path, or nil.
	Find(ctx context.Context, path string) (*tree.Node, error)
	// MergeResults announces a structurally complete tree whose leaves may
	// not be tabulated yet.
	MergeResults(ctx context.Context, root *tree.Node) error
	// Save durably commits every merged tree.
	Save(ctx context.Context) error
}

// FaultError is the deferred error of a session that aborted.
type FaultError struct {
	Root  string
	Stage Activity
	Err   error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("scan of %s failed while %s: %v", e.Root, e.Stage, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

// Progress holds the advisory counters of a session. Both only grow.
type Progress struct {
	// FilesScanned counts files tabulated.
	FilesScanned int64 `json:"filesScanned"`
	// FoldersScanned counts folder visits by the structural and tabulation passes.
	FoldersScanned int64 `json:"foldersScanned"`
}

// Scan is one background scan session over a single root.
type Scan struct {
	id     string
	path   string
	store  Store
	source filesystem.Source
	cfg    Config

	cancelled atomic.Bool
	done      chan struct{}

	// mu guards the fields below.
	mu         sync.Mutex
	activity   Activity
	progress   Progress
	root       *tree.Node
	fault      error
	startedAt  time.Time
	finishedAt time.Time

	// Owned by the session goroutine.
	scanStart      time.Time
	lastCommit     time.Time
	lastPublish    time.Time
	pendingFiles   int64
	pendingFolders int64
}

// New starts a scan session for path in the background.
func New(path string, store Store, source filesystem.Source, cfg Config) *Scan {
	s := &Scan{
		id:        uuid.NewString(),
		path:      filepath.Clean(path),
		store:     store,
		source:    source,
		cfg:       cfg.withDefaults(),
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	metrics.ScanSessionsTotal.WithLabelValues(s.path, "started").Inc()
	go s.run()
	return s
}

// ID returns the session's unique identifier.
func (s *Scan) ID() string {
	return s.id
}

// Path returns the scanned root path.
func (s *Scan) Path() string {
	return s.path
}

// Activity returns what the session is doing now.
func (s *Scan) Activity() Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activity
}

// Progress returns the published counters.
func (s *Scan) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Root returns the tree being scanned, or nil before the session has
// looked up its previous result. Readers must lock each node they read.
func (s *Scan) Root() *tree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// StartedAt returns when the session was created.
func (s *Scan) StartedAt() time.Time {
	return s.startedAt
}

// FinishedAt returns when the session goroutine exited, or zero.
func (s *Scan) FinishedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedAt
}

// Done is closed when the session goroutine exits.
func (s *Scan) Done() <-chan struct{} {
	return s.done
}

// CheckHealth returns and clears the session's pending fault.
func (s *Scan) CheckHealth() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.fault
	s.fault = nil
	return err
}

// Close asks the session to stop and waits until it has. It is safe to call
// more than once.
func (s *Scan) Close() {
	s.cancelled.Store(true)
	<-s.done
}

func (s *Scan) isCancelled() bool {
	return s.cancelled.Load()
}

func (s *Scan) setActivity(a Activity) {
	s.mu.Lock()
	s.activity = a
	s.mu.Unlock()
	metrics.SetActivity(s.path, a.Label(), activityLabels[:])
}

func (s *Scan) setFault(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = err
}

func (s *Scan) run() {
	defer close(s.done)
	defer func() {
		s.mu.Lock()
		s.finishedAt = time.Now()
		s.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			s.fail(fmt.Errorf("panic: %v", r))
		}
	}()

	s.store.Lock()
	defer s.store.Unlock()

	logging.Info("Scan %s of %s started", s.id, s.path)
	if err := s.execute(context.Background()); err != nil {
		s.fail(err)
		return
	}

	status := "completed"
	if s.isCancelled() {
		status = "cancelled"
	}
	metrics.ScanSessionsTotal.WithLabelValues(s.path, status).Inc()
	metrics.ScanLastDuration.WithLabelValues(s.path).Set(time.Since(s.startedAt).Seconds())
	metrics.ScanLastTimestamp.WithLabelValues(s.path).Set(float64(time.Now().Unix()))
}

func (s *Scan) fail(err error) {
	fault := &FaultError{Root: s.path, Stage: s.Activity(), Err: err}
	logging.Error("%v", fault)
	metrics.ScanSessionsTotal.WithLabelValues(s.path, "failed").Inc()
	s.setFault(fault)
}

func (s *Scan) execute(ctx context.Context) error {
	s.scanStart = time.Now()
	s.lastCommit = s.scanStart
	s.lastPublish = s.scanStart
	s.setActivity(ScanningFolders)

	root, err := s.store.Find(ctx, s.path)
	if err != nil {
		return fmt.Errorf("find previous results: %w", err)
	}
	if root == nil {
		logging.Info("No previous results for %s, starting fresh", s.path)
		root = tree.NewRoot(s.path)
	}
	s.mu.Lock()
	s.root = root
	s.mu.Unlock()

	passStart := time.Now()
	s.structuralDiff(root, s.path)
	s.topDown(root, s.path)
	s.publishProgress()
	s.observePass("structural", passStart)
	if s.isCancelled() {
		return nil
	}

	if err := s.store.MergeResults(ctx, root); err != nil {
		return fmt.Errorf("merge results: %w", err)
	}

	for _, stage := range []struct {
		activity Activity
		mode     mode
	}{
		{ScanningNewFolders, newOnly},
		{RescanningOldFolders, rescan},
	} {
		s.setActivity(stage.activity)
		passStart = time.Now()
		for {
			if s.isCancelled() {
				s.publishProgress()
				return nil
			}
			completed, _, err := s.tabulate(ctx, root, s.path, stage.mode)
			if err != nil {
				return err
			}
			if completed {
				break
			}
			metrics.ScanInterruptionsTotal.WithLabelValues(stage.mode.label()).Inc()
		}
		s.publishProgress()
		s.observePass(stage.mode.label(), passStart)
	}

	s.setActivity(CommittingFinalResults)
	if err := s.store.Save(ctx); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	metrics.ScanCommitsTotal.WithLabelValues("final").Inc()
	s.setActivity(ScanComplete)

	st := root.State()
	logging.Info("Scan %s of %s complete in %v: %s in %s files, %s folders",
		s.id, s.path, time.Since(s.scanStart).Round(time.Millisecond),
		humanize.IBytes(uint64(st.Size)), humanize.Comma(st.TotalFiles), humanize.Comma(st.TotalSubfolders))
	return nil
}

func (s *Scan) observePass(pass string, start time.Time) {
	metrics.ScanPassesTotal.WithLabelValues(pass).Inc()
	metrics.ScanPassDuration.WithLabelValues(pass).Observe(time.Since(start).Seconds())
}

// countFile and countFolder buffer progress; it is published every
// ProgressInterval.
func (s *Scan) countFile() {
	s.pendingFiles++
	s.maybePublish()
}

func (s *Scan) countFolder() {
	s.pendingFolders++
	s.maybePublish()
}

func (s *Scan) maybePublish() {
	if time.Since(s.lastPublish) >= s.cfg.ProgressInterval {
		s.publishProgress()
	}
}

func (s *Scan) publishProgress() {
	s.lastPublish = time.Now()
	if s.pendingFiles == 0 && s.pendingFolders == 0 {
		return
	}
	s.mu.Lock()
	s.progress.FilesScanned += s.pendingFiles
	s.progress.FoldersScanned += s.pendingFolders
	s.mu.Unlock()
	metrics.ScanFilesScanned.Add(float64(s.pendingFiles))
	metrics.ScanFoldersScanned.Add(float64(s.pendingFolders))
	s.pendingFiles, s.pendingFolders = 0, 0
}

// maybeCommit saves partial results when CommitInterval has passed since
// the last commit.
func (s *Scan) maybeCommit(ctx context.Context) error {
	if time.Since(s.lastCommit) < s.cfg.CommitInterval {
		return nil
	}
	previous := s.Activity()
	s.setActivity(CommittingPartialResults)
	if err := s.store.Save(ctx); err != nil {
		return fmt.Errorf("save partial results: %w", err)
	}
	s.lastCommit = time.Now()
	metrics.ScanCommitsTotal.WithLabelValues("partial").Inc()
	logging.Debug("Committed partial results for %s", s.path)
	s.setActivity(previous)
	return nil
}
