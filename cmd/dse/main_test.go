package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"diskspace-examiner/internal/database"
	"diskspace-examiner/internal/tree"
)

// makeTree creates a small directory tree and returns its root.
func makeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]int{
		"a.txt":             10,
		"docs/readme.md":    4096,
		"docs/big.bin":      1<<20 + 1,
		"docs/deep/x/y.dat": 12345,
		"media/clip.mp4":    70000,
	}
	for rel, size := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, bytes.Repeat([]byte("x"), size), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func runCmd(t *testing.T, dbDir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--database-dir", dbDir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScanShowVerifyRoots(t *testing.T) {
	data := makeTree(t)
	dbDir := filepath.Join(t.TempDir(), "db")

	out, err := runCmd(t, dbDir, "scan", data)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	for _, name := range []string{"docs", "media", "empty"} {
		if !strings.Contains(out, name) {
			t.Errorf("scan output missing %q:\n%s", name, out)
		}
	}
	if strings.Contains(out, partialMark) {
		t.Errorf("completed scan should not print partial folders:\n%s", out)
	}

	out, err = runCmd(t, dbDir, "show", "--depth", "3", data)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	// docs is over the retention size so deep survives; deep itself is
	// small, so its own subfolders were dropped.
	if !strings.Contains(out, "deep") {
		t.Errorf("show --depth 3 should include nested folders:\n%s", out)
	}

	out, err = runCmd(t, dbDir, "verify", data)
	if err != nil {
		t.Fatalf("verify failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "OK: totals match") {
		t.Errorf("verify output = %q", out)
	}

	out, err = runCmd(t, dbDir, "roots")
	if err != nil {
		t.Fatalf("roots failed: %v", err)
	}
	if !strings.Contains(out, data) {
		t.Errorf("roots output missing %s:\n%s", data, out)
	}
}

func TestVerifyDetectsChanges(t *testing.T) {
	data := makeTree(t)
	dbDir := filepath.Join(t.TempDir(), "db")

	if _, err := runCmd(t, dbDir, "scan", data); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if err := os.Mkdir(filepath.Join(data, "added"), 0o755); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, dbDir, "verify", data)
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("verify error = %v, want ErrMismatch\n%s", err, out)
	}
	if !strings.Contains(out, "+1 folders") {
		t.Errorf("verify output should report the added folder:\n%s", out)
	}
}

func TestShowUnknownDirectory(t *testing.T) {
	dbDir := filepath.Join(t.TempDir(), "db")
	_, err := runCmd(t, dbDir, "show", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "run dse scan first") {
		t.Errorf("show error = %v", err)
	}
}

func TestShowRejectsNegativeDepth(t *testing.T) {
	dbDir := filepath.Join(t.TempDir(), "db")
	if _, err := runCmd(t, dbDir, "show", "--depth=-1", t.TempDir()); err == nil {
		t.Error("expected an error for a negative depth")
	}
}

func TestRootsEmpty(t *testing.T) {
	out, err := runCmd(t, filepath.Join(t.TempDir(), "db"), "roots")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No stored roots.") {
		t.Errorf("roots output = %q", out)
	}
}

func TestScanRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCmd(t, filepath.Join(t.TempDir(), "db"), "scan", f); err == nil {
		t.Error("expected an error when scanning a file")
	}
}

func TestDirectoryArg(t *testing.T) {
	dir := t.TempDir()
	got, err := directoryArg(dir)
	if err != nil || got != dir {
		t.Errorf("directoryArg(%q) = %q, %v", dir, got, err)
	}
	if _, err := directoryArg(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("directoryArg(missing) err = %v, want ErrNotExist", err)
	}
}

func TestWalkCountsEntries(t *testing.T) {
	data := makeTree(t)
	got, err := Walk(context.Background(), data, 2)
	if err != nil {
		t.Fatal(err)
	}
	// docs, docs/deep, docs/deep/x, media, empty
	if got.TotalSubfolders != 5 {
		t.Errorf("TotalSubfolders = %d, want 5", got.TotalSubfolders)
	}
	if got.TotalFiles != 5 {
		t.Errorf("TotalFiles = %d, want 5", got.TotalFiles)
	}
	if got.Size <= 0 {
		t.Errorf("Size = %d, want > 0", got.Size)
	}
}

func TestPrintTreeDepthAndWidth(t *testing.T) {
	root := tree.NewRoot("/data")
	root.Lock()
	a := root.AppendChildLocked("alpha")
	b := root.AppendChildLocked("beta")
	root.Unlock()
	a.Lock()
	a.AppendChildLocked("nested")
	a.Size = 10
	a.Unlock()
	b.Lock()
	b.Size = 20
	b.Unlock()

	var buf bytes.Buffer
	if err := PrintTree(&buf, root, 1, 0); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "nested") {
		t.Errorf("depth 1 should not print grandchildren:\n%s", out)
	}
	if strings.Index(out, "beta") > strings.Index(out, "alpha") {
		t.Errorf("children should be sorted by size, largest first:\n%s", out)
	}
	if !strings.Contains(out, partialMark) {
		t.Errorf("untabulated folders should be marked:\n%s", out)
	}

	buf.Reset()
	if err := PrintTree(&buf, root, 0, 20); err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if len(line) > 20 {
			t.Errorf("line %q exceeds width 20", line)
		}
	}
}

func TestPrintRoots(t *testing.T) {
	now := time.Now()
	var buf bytes.Buffer
	err := PrintRoots(&buf, []database.RootInfo{
		{Path: "/data", Size: 1 << 20, TotalFiles: 1200, LastFullScan: now.Add(-time.Hour), SavedAt: now},
		{Path: "/other"},
	}, now)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"/data", "1.0 MiB", "1,200", "1 hour ago", "never"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
