// Package resource bounds what the log cache may consume.
//
// The Controller manages two resource types:
//
//   - Memory: tracks (and optionally caps) the bytes held by the cache.
//     AcquireMemory never blocks; a refusal is reported as ErrMemoryLimitExceeded
//     and the owner decides what to do (the cached Reader disables its cache).
//   - Device reads: a weighted semaphore caps concurrent reads and a token
//     bucket caps read throughput, so catch-up and replay cannot starve
//     foreground traffic on the log device.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:     256 << 20,
//	    MaxInflightReads:     8,
//	    ReadLimitBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireRead(ctx, len(buf)); err != nil {
//	    return err
//	}
//	defer rc.ReleaseRead()
//
// All methods are safe for concurrent use and handle a nil Controller as
// "no limits".
package resource
