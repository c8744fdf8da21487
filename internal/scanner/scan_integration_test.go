package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"diskspace-examiner/internal/database"
	"diskspace-examiner/internal/filesystem"
	"diskspace-examiner/internal/tree"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func openDB(t *testing.T, path string) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), path)
	if err != nil {
		t.Fatalf("database.New() = %v", err)
	}
	return db
}

// walkTotals counts what a scan of dir should report, using the same
// filesystem access the scanner uses.
func walkTotals(t *testing.T, src filesystem.Source, dir string) tree.Counters {
	t.Helper()
	var c tree.Counters
	for _, f := range src.Files(dir) {
		c.Size += f.Allocated
		c.TotalFiles++
	}
	for _, name := range src.Subdirectories(dir) {
		c = c.Add(walkTotals(t, src, filepath.Join(dir, name)).Contribution())
	}
	return c
}

func TestSessionAgainstRealFilesystemAndDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	data := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "scan.db")
	writeFile(t, filepath.Join(data, "top.txt"), 100)
	writeFile(t, filepath.Join(data, "a", "one.bin"), 5000)
	writeFile(t, filepath.Join(data, "a", "b", "two.bin"), 70000)
	writeFile(t, filepath.Join(data, "gone", "three.bin"), 9000)

	src := filesystem.NewOSSource()

	db := openDB(t, dbPath)
	first := New(data, db, src, Config{})
	waitDone(t, first)
	if err := first.CheckHealth(); err != nil {
		t.Fatalf("first session: %v", err)
	}
	if got, want := first.Root().State().Counters, walkTotals(t, src, data); got != want {
		t.Errorf("first session totals = %+v, want %+v", got, want)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	if err := os.RemoveAll(filepath.Join(data, "gone")); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(data, "new", "four.bin"), 12000)

	// A fresh handle forces the previous tree to come back from SQLite.
	db = openDB(t, dbPath)
	defer db.Close()

	stored, err := db.Tree(context.Background(), data)
	if err != nil {
		t.Fatalf("stored tree: %v", err)
	}
	if !stored.State().Tabulated() {
		t.Error("stored root was not tabulated")
	}

	second := New(data, db, src, Config{})
	waitDone(t, second)
	if err := second.CheckHealth(); err != nil {
		t.Fatalf("second session: %v", err)
	}
	root := second.Root()
	if got, want := root.State().Counters, walkTotals(t, src, data); got != want {
		t.Errorf("second session totals = %+v, want %+v", got, want)
	}
	if root.Child("gone") != nil {
		t.Error("removed folder survived the rescan")
	}
	if root.Child("new") == nil {
		t.Error("added folder was not discovered")
	}

	infos, err := db.Roots(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Path != data || infos[0].Size != root.State().Size {
		t.Errorf("Roots() = %+v", infos)
	}
}
