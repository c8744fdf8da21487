/*
Package filesystem enumerates directories and files for the scanner.

# Source

Source is the narrow view of a directory tree the scanner depends on:
immediate subdirectory names, and immediate files with their last-write time
and on-disk allocated size. OS implements it on the local filesystem; MapSource
is an in-memory implementation for tests and dry runs.

Both methods report access failures as an empty result. A directory that
cannot be read is treated as a leaf and its contents go unaccounted.

# Allocated size

On Linux the allocated size comes from the block count returned by lstat
(golang.org/x/sys/unix), so sparse and compressed files report what they
actually occupy. Other platforms round the logical size up to a 4 KiB block.

# Retries

Directory reads retry NFS stale file handle errors (ESTALE) with exponential
backoff:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

All other errors fail immediately.

# Paths

Join refuses to build paths longer than MaxPath and returns ErrPathTooLong.
The scanner skips such directories instead of failing the session.
*/
package filesystem
