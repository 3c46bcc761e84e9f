// Package device provides read access to the write-ahead log on its physical
// medium.
//
// A Device is what the cached log reader falls back to on a cache miss.
//
// # Built-in Implementations
//
//   - Memory: growable in-memory log with bad-byte injection, for tests
//   - File: a log file that may still be appended to (pread)
//   - Mapped: a sealed log segment mapped read-only (mmap)
//   - s3.Device: a sealed segment stored in Amazon S3 (range GET)
//   - minio.Device: a sealed segment stored in MinIO or any S3-compatible store
//
// # Custom Implementations
//
//	type Device interface {
//	    ReadAt(ctx, p, off) (int, error)
//	    Size(ctx) (int64, error)
//	    Close() error
//	}
//
// Devices that detect unreliable bytes (for example through per-sector
// checksums) should also implement BadOffsetReporter so the offsets travel
// with the cached data.
package device
