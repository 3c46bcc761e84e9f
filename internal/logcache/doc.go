// Package logcache implements the in-memory read cache for the write-ahead log.
//
// # Model
//
// The cache is an ordered index of non-overlapping byte ranges of the log
// address space, keyed by their absolute start offset. Each range carries an
// immutable copy of the log bytes, the commit-state sequence number it was
// read under, and the absolute offsets of bytes known to be unreliable.
//
// # Lookup
//
// Find serves a query only if it is covered contiguously by ranges that all
// belong to the query's commit-state generation. Anything else is a miss and
// the caller reads from the device.
//
// # Insertion
//
// Log content at a given offset is stable once written, so Insert never
// overwrites cached bytes. A new range is clipped to the part not yet covered
// at its boundaries and replaces only the ranges it fully encloses:
//
//	existing:  [abcd)          [ijkl)
//	insert:       [defghi)
//	stored:    [abcd)[efgh)    [ijkl)
//
// The merge is planned and validated before anything is mutated, so a
// rejected insertion leaves the cache untouched.
//
// # Concurrency
//
// A Cache is not safe for concurrent use. The owner serializes all calls.
package logcache
