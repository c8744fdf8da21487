// Command dse works with the scan database from a shell.
//
// Usage:
//
//	dse [--database-dir DIR] [--log-level LEVEL] <command>
//
// Commands:
//
//	scan <dir>            Run one scan session in the foreground and save it.
//	show <dir> [-d N]     Print the stored tree for dir, N levels deep.
//	roots                 List every stored scan root.
//	verify <dir>          Walk dir in parallel and compare the totals with
//	                      the stored ones. Exits non-zero on a mismatch.
//
// Environment:
//
//	DATABASE_DIR  - Path to database directory (default: /database)
//	WALK_WORKERS  - Worker count for verify (default: 2 per CPU)
//
// The server holds the same database open. SQLite's WAL mode lets both read
// it, but scanning a root the server also scans races its saves.
package main
