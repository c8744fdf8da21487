package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"diskspace-examiner/internal/tree"
)

// writeTree replaces the stored rows for root. Each node is read under its
// own lock, so a tree being scanned can be written while it changes.
func writeTree(ctx context.Context, tx *sql.Tx, root *tree.Node, savedAt time.Time) (int64, error) {
	key := pathKey(root.Name())

	if _, err := tx.ExecContext(ctx, "DELETE FROM folders WHERE root_key = ?", key); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO roots (path_key, path, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(path_key) DO UPDATE SET path = excluded.path, saved_at = excluded.saved_at
	`, key, root.Name(), toUnixNano(savedAt)); err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO folders (root_key, id, parent_id, name, size, total_files, total_subfolders,
			oldest, newest, last_full_scan)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	type pending struct {
		node     *tree.Node
		parentID int64
	}
	stack := []pending{{node: root, parentID: -1}}
	var nextID int64

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nextID, err
		}
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		s := p.node.State()
		id := nextID
		nextID++
		if _, err := stmt.ExecContext(ctx, key, id, p.parentID, p.node.Name(),
			s.Size, s.TotalFiles, s.TotalSubfolders,
			toUnixNano(s.Oldest), toUnixNano(s.Newest), toUnixNano(s.LastFullScan)); err != nil {
			return nextID, fmt.Errorf("folder %s: %w", p.node.Name(), err)
		}

		children := p.node.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, pending{node: children[i], parentID: id})
		}
	}
	return nextID, nil
}

// loadTree rebuilds the stored tree for a root key. Parents always have a
// smaller id than their children.
func (d *Database) loadTree(ctx context.Context, key int64) (root *tree.Node, err error) {
	start := time.Now()
	defer func() { recordQuery("load_tree", start, err) }()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, parent_id, name, size, total_files, total_subfolders, oldest, newest, last_full_scan
		FROM folders WHERE root_key = ? ORDER BY id
	`, key)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	nodes := make(map[int64]*tree.Node)
	for rows.Next() {
		var r folderRow
		if err = rows.Scan(&r.id, &r.parentID, &r.name, &r.size, &r.totalFiles,
			&r.totalSubfolders, &r.oldest, &r.newest, &r.lastFullScan); err != nil {
			return nil, err
		}

		var n *tree.Node
		if r.parentID < 0 {
			n = tree.NewRoot(r.name)
			root = n
		} else {
			parent, ok := nodes[r.parentID]
			if !ok {
				return nil, fmt.Errorf("folder %d references missing parent %d", r.id, r.parentID)
			}
			parent.Lock()
			n = parent.AppendChildLocked(r.name)
			parent.Unlock()
		}

		n.Lock()
		n.SetStateLocked(tree.State{
			Counters: tree.Counters{
				Size:            r.size,
				TotalFiles:      r.totalFiles,
				TotalSubfolders: r.totalSubfolders,
			},
			Oldest:       fromUnixNano(r.oldest),
			Newest:       fromUnixNano(r.newest),
			LastFullScan: fromUnixNano(r.lastFullScan),
		})
		n.Unlock()
		nodes[r.id] = n
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ErrNotFound
	}
	return root, nil
}
