// Package scanner runs background scan sessions that bring a stored
// directory-summary tree up to date with the file system.
//
// A session works in four passes over one root:
//
//   - a structural diff of the root's immediate subfolders,
//   - a top-down structural walk, listing every child of a folder before
//     descending into any of them,
//   - a tabulation of folders that were never tabulated,
//   - a rescan tabulation of folders last tabulated before the session
//     started.
//
// Structural passes only add and remove folders. Tabulation lists files and
// writes exact aggregates, stopping early whenever the change it has
// gathered crosses Config.DeltaThreshold so that readers see large changes
// soon. Interrupted work is resumed by running the pass again.
//
// Sessions hold the store's lock for their whole lifetime. Errors and panics
// inside a session are captured and surface through Scan.CheckHealth.
//
// Supervisor schedules sessions for a fixed list of roots and exposes their
// status to the HTTP handlers and the metrics collector.
package scanner
