// Package database persists directory summary trees in SQLite.
//
// Each scan root is stored as a row in the roots table, keyed by the xxhash
// of its case-folded path, with one row per folder in the folders table.
// Folder ids are preorder positions, so a tree loads in a single ordered
// query. Culled folders are stored like any other folder: they simply have
// no child rows.
//
// A Database also implements the store used by scan sessions. MergeResults
// announces a live tree, Save writes every announced tree in one transaction,
// and Find returns the most recent tree for a path. Lock and Unlock form a
// session lock that a scan holds for its whole run.
//
// The database uses WAL mode for concurrent reads while a save is running.
package database
