package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"diskspace-examiner/internal/database"
	"diskspace-examiner/internal/logging"
	"diskspace-examiner/internal/tree"

	"github.com/dustin/go-humanize"
)

const (
	defaultDepth = 1
	maxDepth     = 8

	defaultLimit = 10
	maxLimit     = 1000
)

// TreeNode is the JSON form of a folder summary.
type TreeNode struct {
	Name            string     `json:"name"`
	Path            string     `json:"path"`
	Size            int64      `json:"size"`
	SizeHuman       string     `json:"sizeHuman"`
	TotalFiles      int64      `json:"totalFiles"`
	TotalSubfolders int64      `json:"totalSubfolders"`
	Oldest          *time.Time `json:"oldest,omitempty"`
	Newest          *time.Time `json:"newest,omitempty"`
	LastFullScan    *time.Time `json:"lastFullScan,omitempty"`
	Tabulated       bool       `json:"tabulated"`
	// ChildCount is the number of retained child summaries, which is zero
	// for folders whose details were dropped.
	ChildCount int        `json:"childCount"`
	Children   []TreeNode `json:"children,omitempty"`
}

// GetTree returns the summary of root/path with children down to depth,
// largest first.
//
// Query parameters: root (optional when one root is configured), path
// (relative to root), depth (default 1).
func (h *Handlers) GetTree(w http.ResponseWriter, r *http.Request) {
	depth, ok := intParam(r, "depth", defaultDepth, maxDepth)
	if !ok {
		writeJSONError(w, "depth must be a non-negative integer", http.StatusBadRequest)
		return
	}

	node, fullPath, status, msg := h.resolve(r)
	if node == nil {
		writeJSONError(w, msg, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, buildTreeNode(node, fullPath, depth))
}

// LargestResponse is the body of GET /api/largest.
type LargestResponse struct {
	Path     string     `json:"path"`
	Folders  []TreeNode `json:"folders"`
	Omitted  int        `json:"omitted"`
	Complete bool       `json:"complete"`
}

// GetLargest returns the immediate children of root/path ordered by size.
func (h *Handlers) GetLargest(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", defaultLimit, maxLimit)
	if !ok || limit == 0 {
		writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}

	node, fullPath, status, msg := h.resolve(r)
	if node == nil {
		writeJSONError(w, msg, status)
		return
	}

	children := sortedChildren(node, fullPath)
	response := LargestResponse{
		Path:     fullPath,
		Complete: node.State().Tabulated(),
	}
	if len(children) > limit {
		response.Omitted = len(children) - limit
		children = children[:limit]
	}
	response.Folders = children

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, response)
}

// resolve finds the node named by the root and path query parameters. On
// failure node is nil and status and msg describe the error.
func (h *Handlers) resolve(r *http.Request) (node *tree.Node, fullPath string, status int, msg string) {
	q := r.URL.Query()

	root := q.Get("root")
	if root == "" {
		roots := h.scans.Roots()
		if len(roots) != 1 {
			return nil, "", http.StatusBadRequest, "root is required when several roots are configured"
		}
		root = roots[0]
	}
	if !filepath.IsAbs(root) {
		return nil, "", http.StatusBadRequest, "root must be an absolute path"
	}
	root = filepath.Clean(root)

	rel := strings.Trim(filepath.FromSlash(q.Get("path")), string(filepath.Separator))
	if rel != "" && !filepath.IsLocal(rel) {
		return nil, "", http.StatusBadRequest, "path must stay below root"
	}

	base := h.scans.Tree(root)
	if base == nil {
		var err error
		base, err = h.store.Tree(r.Context(), root)
		if errors.Is(err, database.ErrNotFound) {
			return nil, "", http.StatusNotFound, "no scan results for " + root
		}
		if err != nil {
			logging.Error("Failed to load tree for %s: %v", root, err)
			return nil, "", http.StatusInternalServerError, "failed to load scan results"
		}
	}

	node = base.Lookup(rel)
	if node == nil {
		return nil, "", http.StatusNotFound, "folder not found or its details were dropped"
	}
	// Names match case-insensitively; report the stored spelling.
	return node, node.FullPath(), http.StatusOK, ""
}

func buildTreeNode(n *tree.Node, path string, depth int) TreeNode {
	s := n.Snapshot()
	out := TreeNode{
		Name:            filepath.Base(path),
		Path:            path,
		Size:            s.Size,
		SizeHuman:       humanize.IBytes(uint64(s.Size)),
		TotalFiles:      s.TotalFiles,
		TotalSubfolders: s.TotalSubfolders,
		Oldest:          timePtr(s.Oldest),
		Newest:          timePtr(s.Newest),
		LastFullScan:    timePtr(s.LastFullScan),
		Tabulated:       s.Tabulated(),
		ChildCount:      s.Subfolders,
	}
	if depth > 0 {
		for _, c := range n.Children() {
			out.Children = append(out.Children, buildTreeNode(c, filepath.Join(path, c.Name()), depth-1))
		}
		sortBySize(out.Children)
	}
	return out
}

func sortedChildren(n *tree.Node, path string) []TreeNode {
	children := n.Children()
	out := make([]TreeNode, 0, len(children))
	for _, c := range children {
		out = append(out, buildTreeNode(c, filepath.Join(path, c.Name()), 0))
	}
	sortBySize(out)
	return out
}

func sortBySize(nodes []TreeNode) {
	slices.SortFunc(nodes, func(a, b TreeNode) int {
		if a.Size != b.Size {
			if a.Size > b.Size {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
