// Package wal implements the append-only frame log whose bytes the read cache
// serves.
//
// A log file starts with a 12 byte header (magic and version) followed by
// frames of the form [crc32c u32][len u32][payload]. Appends are flushed to
// the file before they return, so a pread on the same file observes them
// immediately. With DurabilitySync, Append additionally waits for a group
// commit fsync.
package wal
