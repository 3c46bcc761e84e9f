// Package walcache provides an in-memory read cache for a write-ahead log.
//
// Log bytes at a given offset never change once written, so cached ranges
// are never overwritten, only added, erased or dropped wholesale. Every
// cached range is tagged with the commit-state sequence number it was read
// under, and a lookup is served only from ranges of the same generation.
// Advancing the commit state therefore invalidates the cache without
// touching it.
//
// # Quick Start
//
// Cache a local log file that is written by this process:
//
//	w, _ := walcache.OpenWriter("./data/000001.wal")
//	r, _ := w.NewReader(walcache.WithResourceConfig(resource.Config{
//	    MemoryLimitBytes: 256 << 20,
//	}))
//
//	pos, _ := w.Append(ctx, seq, payload)     // written through into the cache
//	buf := make([]byte, pos.Size)
//	res, _ := r.ReadAt(ctx, buf, pos.Offset, seq) // res.Cached == true
//
// Cache a sealed segment in object storage:
//
//	dev, _ := s3.Open(ctx, client, "my-bucket", "wal/000001.wal")
//	r := walcache.NewReader(dev, walcache.WithCompression(walcache.CompressionLZ4))
//
// # Replay
//
// Replay walks the frames of a log through the cache:
//
//	err := r.Replay(ctx, walcache.FirstFrameOffset, seq, func(f walcache.Frame) error {
//	    return apply(f.Payload)
//	})
//
// # Fail-safe policy
//
// The cache has no eviction. When the memory budget of the resource
// controller is exhausted the cache disables itself and every later read
// goes to the device. When the cache detects an internal inconsistency it
// clears itself. Reads never fail because of the cache.
package walcache
