package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"diskspace-examiner/internal/filesystem"
	"diskspace-examiner/internal/tree"
)

const testRoot = "/r"

// memStore is an in-memory Store.
type memStore struct {
	mu sync.Mutex

	dataMu  sync.Mutex
	trees   map[string]*tree.Node
	merged  []*tree.Node
	saves   int
	findErr error
	saveErr error
	// onSave runs at the start of every Save.
	onSave func()
}

func newMemStore() *memStore {
	return &memStore{trees: make(map[string]*tree.Node)}
}

func (m *memStore) Lock()   { m.mu.Lock() }
func (m *memStore) Unlock() { m.mu.Unlock() }

func (m *memStore) Find(_ context.Context, path string) (*tree.Node, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.trees[path], nil
}

func (m *memStore) MergeResults(_ context.Context, root *tree.Node) error {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.merged = append(m.merged, root)
	m.trees[root.Name()] = root
	return nil
}

func (m *memStore) Save(context.Context) error {
	if m.onSave != nil {
		m.onSave()
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	return nil
}

func (m *memStore) saveCount() int {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return m.saves
}

// newTestScan returns a session that is driven by hand instead of by its
// own goroutine.
func newTestScan(src filesystem.Source, cfg Config) *Scan {
	now := time.Now()
	return &Scan{
		path:        testRoot,
		store:       newMemStore(),
		source:      src,
		cfg:         cfg.withDefaults(),
		done:        make(chan struct{}),
		scanStart:   now,
		lastCommit:  now,
		lastPublish: now,
	}
}

func waitDone(t *testing.T, s *Scan) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("scan did not finish")
	}
}

func withChild(parent *tree.Node, name string, c tree.Counters) *tree.Node {
	parent.Lock()
	child := parent.AppendChildLocked(name)
	parent.Unlock()
	child.Adjust(c)
	return child
}

func p(parts ...string) string {
	return filepath.Join(append([]string{testRoot}, parts...)...)
}

func TestStructuralDiffRemoval(t *testing.T) {
	src := filesystem.NewMapSource()
	src.AddDir(p("keep"))

	root := tree.NewRoot(testRoot)
	withChild(root, "keep", tree.Counters{Size: 10, TotalFiles: 1})
	withChild(root, "gone", tree.Counters{Size: 700, TotalFiles: 7, TotalSubfolders: 3})
	root.Adjust(tree.Counters{Size: 710, TotalFiles: 8, TotalSubfolders: 5})

	s := newTestScan(src, Config{})
	delta := s.structuralDiff(root, testRoot)

	want := tree.Counters{Size: -700, TotalFiles: -7, TotalSubfolders: -4}
	if delta != want {
		t.Errorf("delta = %+v, want %+v", delta, want)
	}
	if root.Child("gone") != nil {
		t.Error("removed folder still present")
	}
	if root.Child("keep") == nil {
		t.Error("kept folder was removed")
	}
	if got := root.State().Counters; got != (tree.Counters{Size: 10, TotalFiles: 1, TotalSubfolders: 1}) {
		t.Errorf("root counters = %+v", got)
	}
}

func TestStructuralDiffAddition(t *testing.T) {
	src := filesystem.NewMapSource()
	src.AddDir(p("existing"))
	src.AddDir(p("New"))
	src.AddFile(p("New", "f"), 999, time.Now())

	root := tree.NewRoot(testRoot)
	withChild(root, "EXISTING", tree.Counters{Size: 5, TotalFiles: 1})
	root.Adjust(tree.Counters{Size: 5, TotalFiles: 1, TotalSubfolders: 1})

	s := newTestScan(src, Config{})
	delta := s.structuralDiff(root, testRoot)

	if delta != (tree.Counters{TotalSubfolders: 1}) {
		t.Errorf("delta = %+v, want one subfolder", delta)
	}
	added := root.Child("new")
	if added == nil {
		t.Fatal("new folder not added")
	}
	if st := added.State(); !st.Counters.IsZero() || st.Tabulated() {
		t.Errorf("new folder not empty: %+v", st)
	}
	if added.Parent() != root {
		t.Error("new folder not parented to root")
	}
	if len(root.Children()) != 2 {
		t.Errorf("children = %d, want 2", len(root.Children()))
	}
}

func TestStructuralDiffScenarioB(t *testing.T) {
	const mb500 = 500 * 1000 * 1000
	src := filesystem.NewMapSource()
	src.AddDir(p("C"))

	root := tree.NewRoot(testRoot)
	withChild(root, "B", tree.Counters{Size: mb500, TotalFiles: 12})
	root.Adjust(tree.Counters{Size: mb500, TotalFiles: 12, TotalSubfolders: 1})

	s := newTestScan(src, Config{})
	delta := s.structuralDiff(root, testRoot)

	if delta.Size != -mb500 {
		t.Errorf("delta.Size = %d, want %d", delta.Size, -mb500)
	}
	if delta.TotalSubfolders != 0 {
		t.Errorf("delta.TotalSubfolders = %d, want 0", delta.TotalSubfolders)
	}
	if root.Child("B") != nil || root.Child("C") == nil {
		t.Error("children should contain C and not B")
	}
}

func TestStructuralDiffSkipsUnrepresentablePaths(t *testing.T) {
	long := strings.Repeat("x", filesystem.MaxPath)
	src := filesystem.NewMapSource()
	src.AddDir(p(long))
	src.AddDir(p("ok"))

	root := tree.NewRoot(testRoot)
	s := newTestScan(src, Config{})
	delta := s.structuralDiff(root, testRoot)

	if delta.TotalSubfolders != 1 {
		t.Errorf("delta.TotalSubfolders = %d, want 1", delta.TotalSubfolders)
	}
	if root.Child(long) != nil {
		t.Error("unrepresentable folder was added")
	}
}

func TestStructuralDiffUnreadableIsLeaf(t *testing.T) {
	src := filesystem.NewMapSource()
	src.AddDir(p("a"))
	src.Deny(testRoot)

	root := tree.NewRoot(testRoot)
	withChild(root, "a", tree.Counters{Size: 3, TotalFiles: 1})
	root.Adjust(tree.Counters{Size: 3, TotalFiles: 1, TotalSubfolders: 1})

	s := newTestScan(src, Config{})
	s.structuralDiff(root, testRoot)

	if len(root.Children()) != 0 || !root.State().Counters.IsZero() {
		t.Errorf("unreadable folder kept content: %+v", root.Snapshot())
	}
}

type recordingSource struct {
	*filesystem.MapSource
	mu    sync.Mutex
	calls []string
}

func (r *recordingSource) Subdirectories(path string) []string {
	r.mu.Lock()
	r.calls = append(r.calls, path)
	r.mu.Unlock()
	return r.MapSource.Subdirectories(path)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestTopDownBreadthBeforeDepth(t *testing.T) {
	src := &recordingSource{MapSource: filesystem.NewMapSource()}
	src.AddDir(p("a", "a1", "a11"))
	src.AddDir(p("b", "b1"))

	root := tree.NewRoot(testRoot)
	s := newTestScan(src, Config{})
	s.structuralDiff(root, testRoot)
	s.topDown(root, testRoot)

	if got := root.State().TotalSubfolders; got != 5 {
		t.Errorf("root.TotalSubfolders = %d, want 5", got)
	}
	if got := root.Lookup(filepath.Join("a")).State().TotalSubfolders; got != 2 {
		t.Errorf("a.TotalSubfolders = %d, want 2", got)
	}
	for _, deep := range []string{p("a", "a1"), p("b", "b1")} {
		for _, shallow := range []string{p("a"), p("b")} {
			if indexOf(src.calls, shallow) > indexOf(src.calls, deep) {
				t.Errorf("%s listed before %s: %v", deep, shallow, src.calls)
			}
		}
	}
	if root.Lookup(filepath.Join("a", "a1", "a11")) == nil {
		t.Error("deepest folder not discovered")
	}
}

func TestTopDownCancelledStillAppliesPartialDelta(t *testing.T) {
	src := filesystem.NewMapSource()
	src.AddDir(p("a", "x"))

	root := tree.NewRoot(testRoot)
	a := withChild(root, "a", tree.Counters{})
	root.Adjust(tree.Counters{TotalSubfolders: 1})

	s := newTestScan(src, Config{})
	s.cancelled.Store(true)
	delta := s.topDown(root, testRoot)

	if !delta.IsZero() {
		t.Errorf("delta = %+v, want zero when cancelled before any diff", delta)
	}
	if a.Child("x") != nil {
		t.Error("cancelled pass still diffed children")
	}
}

func TestTabulateScenarioA(t *testing.T) {
	src := filesystem.NewMapSource()
	mtime := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	src.AddFile(p("A", "file.bin"), 2_000_000, mtime)

	root := tree.NewRoot(testRoot)
	s := newTestScan(src, Config{})
	s.structuralDiff(root, testRoot)
	s.topDown(root, testRoot)

	completed, _, err := s.tabulate(context.Background(), root, testRoot, newOnly)
	if err != nil {
		t.Fatal(err)
	}
	if !completed {
		t.Fatal("tabulation below threshold did not complete on the first call")
	}

	st := root.State()
	if st.TotalSubfolders != 1 || st.TotalFiles != 1 || st.Size != 2_000_000 {
		t.Errorf("root = %+v", st.Counters)
	}
	if !st.Oldest.Equal(mtime) || !st.Newest.Equal(mtime) {
		t.Errorf("root times = %v..%v", st.Oldest, st.Newest)
	}
	if !root.Child("A").State().Tabulated() {
		t.Error("A was not tabulated")
	}
}

func TestTabulateInterruption(t *testing.T) {
	src := filesystem.NewMapSource()
	for _, name := range []string{"a", "b", "c"} {
		src.AddFile(p(name, "f"), 600, time.Now())
	}

	root := tree.NewRoot(testRoot)
	s := newTestScan(src, Config{DeltaThreshold: 1000})
	s.structuralDiff(root, testRoot)
	s.topDown(root, testRoot)
	ctx := context.Background()

	completed, delta, err := s.tabulate(ctx, root, testRoot, newOnly)
	if err != nil {
		t.Fatal(err)
	}
	if completed {
		t.Fatal("expected interruption at the delta threshold")
	}
	if delta.Size != 1200 {
		t.Errorf("partial delta = %+v, want 1200 bytes", delta)
	}
	if got := root.State(); got.Size != 1200 || got.TotalFiles != 2 || got.Tabulated() {
		t.Errorf("root after interruption = %+v", got)
	}

	finalized := map[string]time.Time{}
	for _, c := range root.Children() {
		if st := c.State(); st.Tabulated() {
			finalized[c.Name()] = st.LastFullScan
		}
	}
	if len(finalized) != 2 {
		t.Fatalf("finalized %d children, want 2", len(finalized))
	}

	completed, _, err = s.tabulate(ctx, root, testRoot, newOnly)
	if err != nil {
		t.Fatal(err)
	}
	if !completed {
		t.Fatal("second call did not complete")
	}
	for name, at := range finalized {
		if got := root.Child(name).State().LastFullScan; !got.Equal(at) {
			t.Errorf("%s was tabulated again: %v != %v", name, got, at)
		}
	}
	if got := root.State().Counters; got != (tree.Counters{Size: 1800, TotalFiles: 3, TotalSubfolders: 3}) {
		t.Errorf("root = %+v", got)
	}
}

// buildLargeTree has folders big enough that nothing is culled.
func buildLargeTree(src *filesystem.MapSource) {
	const mib2 = 2 << 20
	now := time.Now()
	src.AddFile(p("top.bin"), mib2, now)
	src.AddFile(p("a", "one"), mib2, now.Add(-time.Hour))
	src.AddFile(p("a", "x", "two"), mib2, now.Add(-2*time.Hour))
	src.AddFile(p("a", "x", "y", "three"), mib2, now.Add(-3*time.Hour))
	src.AddFile(p("b", "four"), mib2, now)
	src.AddDir(p("b", "empty"))
}

func checkConservation(t *testing.T, root *tree.Node, src filesystem.Source) {
	t.Helper()
	root.Walk(func(n *tree.Node, s tree.Summary) bool {
		if !s.Tabulated() {
			t.Errorf("%s not tabulated", n.FullPath())
			return true
		}
		var want tree.Counters
		for _, c := range n.Children() {
			want = want.Add(c.State().Counters.Contribution())
		}
		for _, f := range src.Files(n.FullPath()) {
			want.Size += f.Allocated
			want.TotalFiles++
		}
		if s.Counters != want {
			t.Errorf("%s = %+v, want %+v", n.FullPath(), s.Counters, want)
		}
		if s.TotalFiles > 0 && s.Oldest.After(s.Newest) {
			t.Errorf("%s oldest %v after newest %v", n.FullPath(), s.Oldest, s.Newest)
		}
		return true
	})
}

func TestSessionConservationAndIdempotence(t *testing.T) {
	src := filesystem.NewMapSource()
	buildLargeTree(src)
	store := newMemStore()

	scan := New(testRoot, store, src, Config{})
	waitDone(t, scan)
	if err := scan.CheckHealth(); err != nil {
		t.Fatal(err)
	}
	root := scan.Root()
	checkConservation(t, root, src)

	before := map[string]tree.Counters{}
	root.Walk(func(n *tree.Node, s tree.Summary) bool {
		before[n.FullPath()] = s.Counters
		return true
	})

	time.Sleep(2 * time.Millisecond)
	s := newTestScan(src, Config{})
	completed, delta, err := s.tabulate(context.Background(), root, testRoot, rescan)
	if err != nil || !completed {
		t.Fatalf("rescan = %v, %v", completed, err)
	}
	if !delta.IsZero() {
		t.Errorf("rescan of unchanged tree returned %+v", delta)
	}
	root.Walk(func(n *tree.Node, s tree.Summary) bool {
		if s.Counters != before[n.FullPath()] {
			t.Errorf("%s changed: %+v -> %+v", n.FullPath(), before[n.FullPath()], s.Counters)
		}
		return true
	})
}

func TestSessionScenarioA(t *testing.T) {
	src := filesystem.NewMapSource()
	src.AddFile(p("A", "file.bin"), 2_000_000, time.Now())
	store := newMemStore()

	scan := New(testRoot, store, src, Config{})
	waitDone(t, scan)

	if err := scan.CheckHealth(); err != nil {
		t.Fatalf("CheckHealth() = %v", err)
	}
	if got := scan.Activity(); got != ScanComplete {
		t.Errorf("Activity() = %v, want %v", got, ScanComplete)
	}
	root := scan.Root()
	if st := root.State(); st.TotalSubfolders != 1 || st.TotalFiles != 1 || st.Size != 2_000_000 {
		t.Errorf("root = %+v", st.Counters)
	}
	if store.saveCount() != 1 {
		t.Errorf("saves = %d, want 1", store.saveCount())
	}
	if len(store.merged) != 1 || store.merged[0] != root {
		t.Error("tree was not merged into the store")
	}
	if pr := scan.Progress(); pr.FilesScanned != 1 || pr.FoldersScanned == 0 {
		t.Errorf("Progress() = %+v", pr)
	}
	if scan.FinishedAt().IsZero() {
		t.Error("FinishedAt not set")
	}
}

func TestSessionReusesPreviousTree(t *testing.T) {
	src := filesystem.NewMapSource()
	buildLargeTree(src)
	store := newMemStore()

	first := New(testRoot, store, src, Config{})
	waitDone(t, first)
	src.Remove(p("a", "x"))
	src.AddFile(p("c", "new"), 4096, time.Now())

	second := New(testRoot, store, src, Config{})
	waitDone(t, second)
	if err := second.CheckHealth(); err != nil {
		t.Fatal(err)
	}
	if second.Root() != first.Root() {
		t.Error("second session did not reuse the stored tree")
	}
	checkConservation(t, second.Root(), src)
	if second.Root().Lookup(filepath.Join("a", "x")) != nil {
		t.Error("removed folder survived")
	}
}

func TestCullingRoundTrip(t *testing.T) {
	src := filesystem.NewMapSource()
	src.AddFile(p("big", "blob"), 4<<20, time.Now())
	src.AddFile(p("small", "x", "f1"), 100, time.Now())
	src.AddFile(p("small", "y", "f2"), 100, time.Now())
	store := newMemStore()

	scan := New(testRoot, store, src, Config{})
	waitDone(t, scan)
	root := scan.Root()

	small := root.Child("small")
	if small == nil {
		t.Fatal("small folder missing")
	}
	if len(small.Children()) != 0 {
		t.Fatal("small folder was not culled")
	}
	culled := small.State().Counters
	if culled != (tree.Counters{Size: 200, TotalFiles: 2, TotalSubfolders: 2}) {
		t.Errorf("culled counters = %+v", culled)
	}

	time.Sleep(2 * time.Millisecond)
	s := newTestScan(src, Config{})
	s.structuralDiff(root, testRoot)
	s.topDown(root, testRoot)

	for _, name := range []string{"x", "y"} {
		c := small.Child(name)
		if c == nil {
			t.Fatalf("%s not rediscovered", name)
		}
		if c.State().Tabulated() {
			t.Errorf("%s should be brand new", name)
		}
	}
	if small.State().Tabulated() {
		t.Error("culled folder that regained children should need tabulation")
	}

	ctx := context.Background()
	for _, m := range []mode{newOnly, rescan} {
		for {
			completed, _, err := s.tabulate(ctx, root, testRoot, m)
			if err != nil {
				t.Fatal(err)
			}
			if completed {
				break
			}
		}
	}
	if got := small.State().Counters; got != culled {
		t.Errorf("after rescan small = %+v, want %+v", got, culled)
	}
	if got := root.State().TotalSubfolders; got != 4 {
		t.Errorf("root.TotalSubfolders = %d, want 4", got)
	}
}

func TestSessionFaultIsDeferred(t *testing.T) {
	src := filesystem.NewMapSource()
	src.AddDir(p("a"))
	store := newMemStore()
	saveErr := errors.New("disk full")
	store.saveErr = saveErr

	scan := New(testRoot, store, src, Config{})
	waitDone(t, scan)

	err := scan.CheckHealth()
	var fault *FaultError
	if !errors.As(err, &fault) {
		t.Fatalf("CheckHealth() = %v, want FaultError", err)
	}
	if !errors.Is(err, saveErr) {
		t.Errorf("fault does not wrap the store error: %v", err)
	}
	if fault.Stage != CommittingFinalResults {
		t.Errorf("fault stage = %v", fault.Stage)
	}
	if err := scan.CheckHealth(); err != nil {
		t.Errorf("second CheckHealth() = %v, want nil", err)
	}
	if !store.mu.TryLock() {
		t.Fatal("store lock still held after fault")
	}
	store.mu.Unlock()
}

func TestSessionFindFault(t *testing.T) {
	store := newMemStore()
	store.findErr = errors.New("corrupt")

	scan := New(testRoot, store, filesystem.NewMapSource(), Config{})
	waitDone(t, scan)

	if err := scan.CheckHealth(); !errors.Is(err, store.findErr) {
		t.Errorf("CheckHealth() = %v", err)
	}
	if scan.Root() != nil {
		t.Error("Root() set despite failed lookup")
	}
}

type panickingSource struct {
	*filesystem.MapSource
}

func (panickingSource) Files(string) []filesystem.FileEntry {
	panic("listing exploded")
}

func TestSessionPanicBecomesFault(t *testing.T) {
	src := panickingSource{filesystem.NewMapSource()}
	store := newMemStore()

	scan := New(testRoot, store, src, Config{})
	waitDone(t, scan)

	err := scan.CheckHealth()
	if err == nil || !strings.Contains(err.Error(), "listing exploded") {
		t.Fatalf("CheckHealth() = %v", err)
	}
	var fault *FaultError
	if errors.As(err, &fault) && fault.Stage != ScanningNewFolders {
		t.Errorf("fault stage = %v, want %v", fault.Stage, ScanningNewFolders)
	}
}

type blockingSource struct {
	*filesystem.MapSource
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSource) Subdirectories(path string) []string {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.MapSource.Subdirectories(path)
}

func TestCloseWaitsForSession(t *testing.T) {
	src := &blockingSource{
		MapSource: filesystem.NewMapSource(),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	src.AddDir(p("a", "b"))
	store := newMemStore()

	scan := New(testRoot, store, src, Config{})
	<-src.entered

	if store.mu.TryLock() {
		store.mu.Unlock()
		t.Fatal("store lock not held during the session")
	}

	var closed atomic.Bool
	go func() {
		scan.Close()
		closed.Store(true)
	}()

	time.Sleep(50 * time.Millisecond)
	if closed.Load() {
		t.Fatal("Close returned before the session stopped")
	}
	close(src.release)
	waitDone(t, scan)

	deadline := time.Now().Add(5 * time.Second)
	for !closed.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !closed.Load() {
		t.Fatal("Close never returned")
	}
	if scan.Activity() == ScanComplete {
		t.Error("cancelled session reports completion")
	}
	if store.saveCount() != 0 {
		t.Errorf("cancelled session saved %d times", store.saveCount())
	}
	if err := scan.CheckHealth(); err != nil {
		t.Errorf("cancellation recorded a fault: %v", err)
	}
	scan.Close()
}

func TestPartialCommits(t *testing.T) {
	src := filesystem.NewMapSource()
	buildLargeTree(src)
	store := newMemStore()

	scan := New(testRoot, store, src, Config{CommitInterval: time.Nanosecond})
	waitDone(t, scan)

	if err := scan.CheckHealth(); err != nil {
		t.Fatal(err)
	}
	if store.saveCount() < 2 {
		t.Errorf("saves = %d, want partial commits plus the final one", store.saveCount())
	}
	if scan.Activity() != ScanComplete {
		t.Errorf("Activity() = %v after partial commits", scan.Activity())
	}
}

// filesGate blocks the first Files call for one directory.
type filesGate struct {
	*filesystem.MapSource
	path    string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *filesGate) Files(path string) []filesystem.FileEntry {
	if path == g.path {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.MapSource.Files(path)
}

func TestProgressPublishedDuringScan(t *testing.T) {
	src := &filesGate{
		MapSource: filesystem.NewMapSource(),
		path:      testRoot,
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	for _, name := range []string{"one", "two", "three"} {
		src.AddFile(p("a", name), 4096, time.Now())
	}
	src.AddFile(p("top"), 4096, time.Now())

	scan := New(testRoot, newMemStore(), src, Config{ProgressInterval: time.Nanosecond})
	// The root's own files are listed after every child is tabulated.
	<-src.entered

	select {
	case <-scan.Done():
		t.Fatal("session finished while its files were blocked")
	default:
	}
	if pr := scan.Progress(); pr.FilesScanned == 0 || pr.FoldersScanned == 0 {
		t.Errorf("Progress() mid-scan = %+v, want published counts", pr)
	}
	if got := scan.Activity(); got != ScanningNewFolders {
		t.Errorf("Activity() mid-scan = %v, want %v", got, ScanningNewFolders)
	}

	close(src.release)
	waitDone(t, scan)
	if err := scan.CheckHealth(); err != nil {
		t.Fatal(err)
	}
	// The rescan pass skips "a", finalized this session, and re-reads
	// only the root's own file.
	if pr := scan.Progress(); pr.FilesScanned != 5 {
		t.Errorf("Progress().FilesScanned = %d, want 5", pr.FilesScanned)
	}
}

func TestPartialCommitActivity(t *testing.T) {
	s := newTestScan(filesystem.NewMapSource(), Config{CommitInterval: time.Nanosecond})
	store := s.store.(*memStore)

	var during Activity = -1
	store.onSave = func() { during = s.Activity() }
	s.setActivity(RescanningOldFolders)
	s.lastCommit = time.Now().Add(-time.Minute)

	if err := s.maybeCommit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if during != CommittingPartialResults {
		t.Errorf("activity during save = %v, want %v", during, CommittingPartialResults)
	}
	if got := s.Activity(); got != RescanningOldFolders {
		t.Errorf("activity after save = %v, want %v", got, RescanningOldFolders)
	}
	if store.saveCount() != 1 {
		t.Errorf("saves = %d, want 1", store.saveCount())
	}

	// Within the interval nothing is written.
	s.cfg.CommitInterval = time.Hour
	if err := s.maybeCommit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.saveCount() != 1 {
		t.Errorf("saves = %d, want 1", store.saveCount())
	}
}

func TestPartialCommitFailureAbortsSession(t *testing.T) {
	src := filesystem.NewMapSource()
	buildLargeTree(src)
	store := newMemStore()
	saveErr := errors.New("disk full")
	store.saveErr = saveErr

	scan := New(testRoot, store, src, Config{CommitInterval: time.Nanosecond})
	waitDone(t, scan)

	var fault *FaultError
	err := scan.CheckHealth()
	if !errors.As(err, &fault) || !errors.Is(err, saveErr) {
		t.Fatalf("CheckHealth() = %v, want FaultError wrapping the save error", err)
	}
	if fault.Stage != CommittingPartialResults {
		t.Errorf("fault stage = %v, want %v", fault.Stage, CommittingPartialResults)
	}
}

func TestActivityStrings(t *testing.T) {
	if ScanningFolders.String() != "scanning folders" || ScanComplete.Label() != "scan_complete" {
		t.Error("unexpected activity names")
	}
	if Activity(99).String() != "unknown" {
		t.Error("out-of-range activity should be unknown")
	}
	if len(ActivityLabels()) != 6 {
		t.Errorf("ActivityLabels() = %v", ActivityLabels())
	}
}
