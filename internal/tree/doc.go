// Package tree holds the directory-summary tree that scan sessions mutate
// and readers display.
//
// Every Node carries recursive aggregates (on-disk size, file count,
// descendant folder count, oldest and newest file time) plus the moment it
// was last tabulated exactly. Aggregates change in two ways only: Adjust
// applies a Counters delta, and Finalize overwrites them with an exact
// Tally. Each node has its own mutex; a reader must hold it to read the
// exported fields, and code that holds two locks always takes the parent
// before the child.
//
// Parent links are weak and exist only to rebuild full paths (FullPath,
// which the HTTP API uses to report a folder's stored spelling). Ownership
// runs strictly from parent to child through Subfolders.
package tree
