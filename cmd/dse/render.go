package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"diskspace-examiner/internal/database"
	"diskspace-examiner/internal/tree"
)

// TabSpacing is the number of spaces between tabwriter columns.
const TabSpacing = 2

// partialMark flags folders whose totals are estimates.
const partialMark = " (partial)"

// terminalWidth returns the column count of w when it is a terminal, or 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

type childSummary struct {
	node *tree.Node
	tree.Summary
}

// childrenBySize snapshots n's children, largest first.
func childrenBySize(n *tree.Node) []childSummary {
	children := n.Children()
	out := make([]childSummary, 0, len(children))
	for _, c := range children {
		out = append(out, childSummary{node: c, Summary: c.Snapshot()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// PrintTree writes root and its descendants down to depth levels, one line
// per folder. Lines longer than width are cut when width is positive.
func PrintTree(w io.Writer, root *tree.Node, depth, width int) error {
	var b strings.Builder
	b.WriteString(fit(fmt.Sprintf("%10s %12s %10s  %s", "SIZE", "FILES", "FOLDERS", "PATH"), width))
	s := root.Snapshot()
	b.WriteString(treeLine(s, s.Name, width))
	writeChildren(&b, root, depth, 1, width)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeChildren(b *strings.Builder, n *tree.Node, depth, level, width int) {
	if depth >= 0 && level > depth {
		return
	}
	for _, c := range childrenBySize(n) {
		b.WriteString(treeLine(c.Summary, strings.Repeat("  ", level)+c.Name, width))
		writeChildren(b, c.node, depth, level+1, width)
	}
}

func treeLine(s tree.Summary, label string, width int) string {
	if !s.Tabulated() {
		label += partialMark
	}
	return fit(fmt.Sprintf("%10s %12s %10s  %s",
		humanize.IBytes(uint64(max(s.Size, 0))), humanize.Comma(s.TotalFiles), humanize.Comma(s.TotalSubfolders), label), width)
}

// fit cuts line to width columns when width is positive and ends it with
// a newline.
func fit(line string, width int) string {
	if width > 1 && len(line) > width {
		line = line[:width-1] + "~"
	}
	return line + "\n"
}

// PrintRoots writes one table row per stored root.
func PrintRoots(w io.Writer, roots []database.RootInfo, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, TabSpacing, ' ', 0)
	fmt.Fprintln(tw, "PATH\tSIZE\tFILES\tFOLDERS\tLAST FULL SCAN\tSAVED")
	for _, r := range roots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Path,
			humanize.IBytes(uint64(max(r.Size, 0))),
			humanize.Comma(r.TotalFiles),
			humanize.Comma(r.TotalSubfolders),
			relativeTime(r.LastFullScan, now),
			relativeTime(r.SavedAt, now))
	}
	return tw.Flush()
}

func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
