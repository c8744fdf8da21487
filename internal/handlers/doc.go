// Package handlers provides the HTTP handlers of the disk space API.
//
// It includes handlers for:
//   - Health, liveness and readiness probes, and build information
//   - Per-root scan status and manual rescans
//   - Browsing a summary tree to a chosen depth
//   - Listing the largest folders below a path
//   - Listing the roots stored in the database
//
// Handlers read trees that scan sessions are updating concurrently; every
// node is read under its own lock, so a response may mix values from
// before and after an in-flight adjustment but never a torn node.
package handlers
