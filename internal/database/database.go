package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"diskspace-examiner/internal/logging"
	"diskspace-examiner/internal/metrics"
	"diskspace-examiner/internal/tree"
)

// Default timeout for short database operations
const defaultTimeout = 5 * time.Second

// saveTimeout bounds a full save of every merged tree.
const saveTimeout = 5 * time.Minute

// ErrNotFound is returned when no stored tree covers a path.
var ErrNotFound = errors.New("not found")

// Database persists directory trees in SQLite and holds the trees announced
// by running scan sessions.
type Database struct {
	db     *sql.DB
	dbPath string

	// session serializes scan sessions; see Lock.
	session sync.Mutex

	// mu guards merged and superseded.
	mu         sync.RWMutex
	merged     map[int64]*tree.Node
	superseded map[int64]struct{}
}

// New creates a new Database instance.
// dbPath is the full path to the database file; its parent directory must
// already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:         db,
		dbPath:     dbPath,
		merged:     make(map[int64]*tree.Node),
		superseded: make(map[int64]struct{}),
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := `
	-- One row per stored scan root
	CREATE TABLE IF NOT EXISTS roots (
		path_key INTEGER PRIMARY KEY,
		path TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	);

	-- Folder summaries; id is the preorder position within the root's tree
	CREATE TABLE IF NOT EXISTS folders (
		root_key INTEGER NOT NULL,
		id INTEGER NOT NULL,
		parent_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		total_files INTEGER NOT NULL DEFAULT 0,
		total_subfolders INTEGER NOT NULL DEFAULT 0,
		oldest INTEGER NOT NULL DEFAULT 0,
		newest INTEGER NOT NULL DEFAULT 0,
		last_full_scan INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (root_key, id),
		FOREIGN KEY (root_key) REFERENCES roots(path_key) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(root_key, parent_id);

	-- Metadata table
	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	_, err = d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Lock acquires the session lock. A scan session holds it from start to
// finish so partial commits never interleave with another session's.
func (d *Database) Lock() {
	d.session.Lock()
}

// Unlock releases the session lock.
func (d *Database) Unlock() {
	d.session.Unlock()
}

// Find returns the tree previously recorded for path, or nil if nothing is
// known. A tree announced by MergeResults takes precedence over the stored
// one and is returned as is. When path lies below a known root, a detached
// copy of that subtree is returned instead.
func (d *Database) Find(ctx context.Context, path string) (*tree.Node, error) {
	node, err := d.Tree(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return node, err
}

// Tree is Find for readers: it returns ErrNotFound when no tree covers path.
func (d *Database) Tree(ctx context.Context, path string) (*tree.Node, error) {
	path = filepath.Clean(path)
	key := pathKey(path)

	d.mu.RLock()
	if n, ok := d.merged[key]; ok {
		d.mu.RUnlock()
		return n, nil
	}
	for _, n := range d.merged {
		if rel, ok := relativeTo(n.Name(), path); ok {
			if sub := n.Lookup(rel); sub != nil {
				d.mu.RUnlock()
				return sub.CloneAsRoot(path), nil
			}
		}
	}
	d.mu.RUnlock()

	root, err := d.loadTree(ctx, key)
	if err == nil {
		return root, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	stored, err := d.Roots(ctx)
	if err != nil {
		return nil, err
	}
	var best *RootInfo
	for i := range stored {
		if _, ok := relativeTo(stored[i].Path, path); ok {
			if best == nil || len(stored[i].Path) > len(best.Path) {
				best = &stored[i]
			}
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	ancestor, err := d.loadTree(ctx, pathKey(best.Path))
	if err != nil {
		return nil, err
	}
	rel, _ := relativeTo(best.Path, path)
	sub := ancestor.Lookup(rel)
	if sub == nil {
		return nil, ErrNotFound
	}
	return sub.CloneAsRoot(path), nil
}

// MergeResults announces root as the current tree for its path. Later saves
// write it, and it replaces any known roots beneath it.
func (d *Database) MergeResults(_ context.Context, root *tree.Node) error {
	if root == nil {
		return errors.New("merge of nil tree")
	}
	path := root.Name()

	d.mu.Lock()
	defer d.mu.Unlock()

	for key, n := range d.merged {
		if _, ok := relativeTo(path, n.Name()); ok {
			delete(d.merged, key)
			d.superseded[key] = struct{}{}
		}
	}
	key := pathKey(path)
	d.merged[key] = root
	delete(d.superseded, key)

	logging.Debug("Merged tree for %s", path)
	return nil
}

// Save writes every merged tree in one transaction and drops stored roots
// that a merged tree supersedes.
func (d *Database) Save(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("save", start, err) }()

	d.mu.RLock()
	roots := make([]*tree.Node, 0, len(d.merged))
	for _, n := range d.merged {
		roots = append(roots, n)
	}
	d.mu.RUnlock()

	// Stored roots beneath a merged root are superseded too, even if this
	// process never loaded them.
	stored, err := d.Roots(ctx)
	if err != nil {
		return err
	}
	drop := make(map[int64]struct{})
	d.mu.RLock()
	for key := range d.superseded {
		drop[key] = struct{}{}
	}
	d.mu.RUnlock()
	for _, info := range stored {
		for _, r := range roots {
			if _, ok := relativeTo(r.Name(), info.Path); ok {
				drop[pathKey(info.Path)] = struct{}{}
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}

	var written int64
	err = func() error {
		for key := range drop {
			if _, err := tx.ExecContext(ctx, "DELETE FROM folders WHERE root_key = ?", key); err != nil {
				return fmt.Errorf("failed to drop superseded folders: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM roots WHERE path_key = ?", key); err != nil {
				return fmt.Errorf("failed to drop superseded root: %w", err)
			}
		}
		for _, r := range roots {
			n, err := writeTree(ctx, tx, r, start)
			if err != nil {
				return fmt.Errorf("failed to save %s: %w", r.Name(), err)
			}
			written += n
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO metadata (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, keyLastSave, start.UTC().Format(time.RFC3339))
		return err
	}()
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}

	d.mu.Lock()
	for key := range drop {
		delete(d.superseded, key)
	}
	d.mu.Unlock()

	metrics.DBFoldersStored.Set(float64(written))
	logging.Debug("Saved %d roots (%d folders) in %v", len(roots), written, time.Since(start))
	return nil
}

// Roots lists stored roots with their top-level totals.
func (d *Database) Roots(ctx context.Context) (infos []RootInfo, err error) {
	start := time.Now()
	defer func() { recordQuery("list_roots", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT r.path, r.saved_at, f.size, f.total_files, f.total_subfolders, f.last_full_scan,
			(SELECT COUNT(*) FROM folders c WHERE c.root_key = r.path_key)
		FROM roots r
		JOIN folders f ON f.root_key = r.path_key AND f.id = 0
		ORDER BY r.path
	`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for rows.Next() {
		var info RootInfo
		var savedAt, lastFullScan int64
		if err = rows.Scan(&info.Path, &savedAt, &info.Size, &info.TotalFiles,
			&info.TotalSubfolders, &lastFullScan, &info.Folders); err != nil {
			return nil, err
		}
		info.SavedAt = fromUnixNano(savedAt)
		info.LastFullScan = fromUnixNano(lastFullScan)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics records the sizes of the database, WAL and SHM files.
func (d *Database) UpdateDBMetrics() {
	for label, suffix := range map[string]string{"main": "", "wal": "-wal", "shm": "-shm"} {
		if info, err := os.Stat(d.dbPath + suffix); err == nil {
			metrics.DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
		} else {
			metrics.DBSizeBytes.WithLabelValues(label).Set(0)
		}
	}
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	logging.Debug("Database directory is writable")

	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", p, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("%s is read-only! Mode: %v - this will cause write failures", p, info.Mode())
			if chmodErr := os.Chmod(p, 0o600); chmodErr != nil {
				logging.Error("Failed to fix permissions on %s: %v", p, chmodErr)
			} else {
				logging.Info("Fixed permissions on %s", p)
			}
		}
	}

	return nil
}
