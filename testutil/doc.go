// Package testutil provides testing utilities for walcache.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Ranges
//
//	rng := testutil.NewRNG(seed)
//	off, n := rng.Range(4096, 64) // off < 4096, 1 <= n <= 64
//
// # Simulated Log Content
//
// LogBytes returns deterministic content for any range of a simulated log, so
// tests can check cached bytes against the log without keeping a copy:
//
//	data := testutil.LogBytes(off, n)
package testutil
