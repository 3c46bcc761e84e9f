package resource

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when memory limit would be exceeded.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for cached log bytes.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxInflightReads is the maximum number of concurrent device reads.
	// If 0, defaults to 4.
	MaxInflightReads int64

	// ReadLimitBytesPerSec is the maximum device read throughput.
	// If 0, unlimited.
	ReadLimitBytesPerSec int64
}

// Controller manages the memory budget of the cache and the read pressure
// put on the log device.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Device reads
	readSem     *semaphore.Weighted
	readLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxInflightReads <= 0 {
		cfg.MaxInflightReads = 4
	}

	c := &Controller{
		cfg:     cfg,
		readSem: semaphore.NewWeighted(cfg.MaxInflightReads),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.ReadLimitBytesPerSec > 0 {
		c.readLimiter = rate.NewLimiter(rate.Limit(cfg.ReadLimitBytesPerSec), int(cfg.ReadLimitBytesPerSec))
	}

	return c
}

// AcquireMemory attempts to reserve memory.
// Returns ErrMemoryLimitExceeded if limit would be exceeded.
// Non-blocking - callers decide what to do on refusal.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return ErrMemoryLimitExceeded
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireRead reserves a device read slot and waits until the read limit
// admits bytes. The slot must be returned with ReleaseRead.
func (c *Controller) AcquireRead(ctx context.Context, bytes int) error {
	if c == nil {
		return nil
	}
	if err := c.readSem.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := c.waitIO(ctx, bytes); err != nil {
		c.readSem.Release(1)
		return err
	}
	return nil
}

// ReleaseRead returns a slot taken by AcquireRead.
func (c *Controller) ReleaseRead() {
	if c == nil {
		return
	}
	c.readSem.Release(1)
}

// TryAcquireRead reserves a read slot without blocking. It does not consult
// the rate limit.
func (c *Controller) TryAcquireRead() bool {
	if c == nil {
		return true
	}
	return c.readSem.TryAcquire(1)
}

// TryAcquireIO attempts to take read tokens without blocking. A request
// larger than the bucket is admitted only when the bucket is full, and drains
// it.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.readLimiter == nil {
		return true
	}
	now := time.Now()
	if burst := c.readLimiter.Burst(); bytes > burst {
		return c.readLimiter.AllowN(now, burst)
	}
	return c.readLimiter.AllowN(now, bytes)
}

// waitIO waits for bytes tokens, in bursts no larger than the bucket.
func (c *Controller) waitIO(ctx context.Context, bytes int) error {
	if c.readLimiter == nil {
		return nil
	}
	burst := c.readLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.readLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
