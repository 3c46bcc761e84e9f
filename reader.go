package walcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/walcache/commitstate"
	"github.com/hupe1980/walcache/device"
	"github.com/hupe1980/walcache/internal/logcache"
	"github.com/hupe1980/walcache/resource"
	"golang.org/x/sync/singleflight"
)

// ReadResult describes a completed read.
type ReadResult struct {
	// BadOffsets lists absolute offsets known to be unreliable. On a cache hit
	// these are the bad offsets of every cached range that served the read,
	// which may lie outside the requested window.
	BadOffsets []uint64
	// Cached is true if the read was served from memory.
	Cached bool
}

// Stats is a snapshot of the cache state.
type Stats struct {
	Records     int
	Bytes       int64
	Disabled    bool
	MemoryUsage int64
	MemoryLimit int64
}

// Reader serves reads of a log device through the in-memory cache.
// It is safe for concurrent use.
type Reader struct {
	mu    sync.Mutex // guards cache
	cache *logcache.Cache

	dev         device.Device
	group       singleflight.Group
	controller  *resource.Controller
	commitState commitstate.Source
	logger      *Logger
	metrics     MetricsCollector
	closed      atomic.Bool
}

// NewReader creates a Reader for dev.
func NewReader(dev device.Device, optFns ...Option) *Reader {
	o := applyOptions(optFns)

	r := &Reader{
		dev:         dev,
		controller:  o.controller,
		commitState: o.commitState,
		logger:      o.logger,
		metrics:     o.metricsCollector,
	}
	r.cache = logcache.New(func(co *logcache.Options) {
		co.Compression = o.compression
		if o.controller != nil {
			co.Memory = o.controller
		}
	})
	return r
}

// ReadAt fills p with the log bytes at off as seen under commit-state seq.
//
// A hit is served from memory. On a miss the bytes are read from the device
// and offered to the cache; concurrent identical misses share one device
// read. A read past the end of the log returns io.ErrUnexpectedEOF.
func (r *Reader) ReadAt(ctx context.Context, p []byte, off uint64, seq uint64) (ReadResult, error) {
	if r.closed.Load() {
		return ReadResult{}, ErrClosed
	}
	if len(p) == 0 {
		return ReadResult{}, nil
	}
	if uint64(len(p)) > math.MaxUint32 || off > math.MaxInt64-uint64(len(p)) {
		return ReadResult{}, fmt.Errorf("%w: offset %d size %d", ErrInvalidRange, off, len(p))
	}

	r.mu.Lock()
	found := r.cache.Find(off, uint32(len(p)), seq, p)
	r.mu.Unlock()

	r.metrics.RecordLookup(found.Hit)
	if found.Hit {
		return ReadResult{BadOffsets: found.BadOffsets, Cached: true}, nil
	}
	r.logger.LogMiss(ctx, off, len(p), seq)

	key := strconv.FormatUint(off, 10) + ":" + strconv.Itoa(len(p)) + ":" + strconv.FormatUint(seq, 10)
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.fill(ctx, off, len(p), seq)
	})
	if err != nil {
		return ReadResult{}, err
	}

	f := v.(*filled)
	copy(p, f.data)
	return ReadResult{BadOffsets: f.bad}, nil
}

// ReadAtCurrent is ReadAt under the current commit state of the configured
// commitstate.Source.
func (r *Reader) ReadAtCurrent(ctx context.Context, p []byte, off uint64) (ReadResult, error) {
	if r.commitState == nil {
		return ReadResult{}, ErrNoCommitState
	}
	seq, err := r.commitState.Current(ctx)
	if err != nil {
		return ReadResult{}, fmt.Errorf("commit state: %w", err)
	}
	return r.ReadAt(ctx, p, off, seq)
}

type filled struct {
	data []byte
	bad  []uint64
}

func (r *Reader) fill(ctx context.Context, off uint64, n int, seq uint64) (*filled, error) {
	if err := r.controller.AcquireRead(ctx, n); err != nil {
		return nil, err
	}
	defer r.controller.ReleaseRead()

	data, err := r.readDevice(ctx, off, n)
	if err != nil {
		return nil, err
	}
	bad := r.badOffsets(off, n)

	// The read itself succeeded; a cache fault only costs the caching.
	_, _ = r.populate(ctx, data, off, seq, bad)

	return &filled{data: data, bad: bad}, nil
}

func (r *Reader) readDevice(ctx context.Context, off uint64, n int) ([]byte, error) {
	buf := make([]byte, n)

	start := time.Now()
	k, err := r.dev.ReadAt(ctx, buf, int64(off))
	duration := time.Since(start)

	if k == n {
		err = nil // io.ReaderAt may report io.EOF with a full read.
	} else if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}

	r.metrics.RecordDeviceRead(k, duration, err)
	r.logger.LogDeviceRead(ctx, off, n, k, duration, err)

	if err != nil {
		return nil, fmt.Errorf("read log at %d: %w", off, err)
	}
	return buf, nil
}

func (r *Reader) badOffsets(off uint64, n int) []uint64 {
	rep, ok := r.dev.(device.BadOffsetReporter)
	if !ok {
		return nil
	}
	return rep.BadOffsets(int64(off), n)
}

// populate offers data to the cache and applies the fail-safe policy:
// running out of memory disables the cache, an internal fault clears it.
func (r *Reader) populate(ctx context.Context, data []byte, off uint64, seq uint64, bad []uint64) (InsertResult, error) {
	r.mu.Lock()
	res, err := r.cache.Insert(data, off, seq, bad)
	if err != nil {
		r.cache.Clear()
		r.mu.Unlock()

		r.metrics.RecordInvariantViolation()
		r.logger.LogInvariant(ctx, err)
		return res, err
	}
	if res.Outcome == RejectedMemory {
		r.cache.Disable()
	}
	r.mu.Unlock()

	r.metrics.RecordInsert(res.Outcome)
	switch res.Outcome {
	case Inserted:
	case RejectedMemory:
		r.metrics.RecordDisable()
		r.logger.LogDisable(ctx, "memory budget exhausted", r.controller.MemoryUsage(), r.controller.MemoryLimit())
	default:
		r.logger.LogInsertRejected(ctx, off, len(data), res.Outcome)
	}
	return res, nil
}

// Populate offers bytes known to be the log content at off to the cache,
// typically right after they were written. Cached bytes are never replaced.
func (r *Reader) Populate(ctx context.Context, data []byte, off uint64, seq uint64, badOffsets []uint64) (InsertResult, error) {
	if r.closed.Load() {
		return InsertResult{}, ErrClosed
	}
	return r.populate(ctx, data, off, seq, badOffsets)
}

// Prefetch reads [off, off+n) into the cache unless the device is busy.
// It never waits for a read slot or read tokens; it reports whether the range
// is cached afterwards.
func (r *Reader) Prefetch(ctx context.Context, off uint64, n int, seq uint64) (bool, error) {
	if r.closed.Load() {
		return false, ErrClosed
	}
	if n <= 0 || uint64(n) > math.MaxUint32 || off > math.MaxInt64-uint64(n) {
		return false, fmt.Errorf("%w: offset %d size %d", ErrInvalidRange, off, n)
	}

	probe := make([]byte, n)
	if r.cached(off, seq, probe) {
		return true, nil
	}
	if r.Disabled() {
		return false, nil
	}

	if !r.controller.TryAcquireRead() {
		return false, nil
	}
	defer r.controller.ReleaseRead()
	if !r.controller.TryAcquireIO(n) {
		return false, nil
	}

	data, err := r.readDevice(ctx, off, n)
	if err != nil {
		return false, err
	}
	if _, err := r.populate(ctx, data, off, seq, r.badOffsets(off, n)); err != nil {
		return false, err
	}
	return r.cached(off, seq, probe), nil
}

func (r *Reader) cached(off uint64, seq uint64, probe []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Find(off, uint32(len(probe)), seq, probe).Hit
}

// Invalidate drops every cached range that starts in [begin, end), for
// example after the log was truncated. It returns the number of ranges removed.
func (r *Reader) Invalidate(begin, end uint64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.EraseRange(begin, end)
}

// Reset drops all cached ranges.
func (r *Reader) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Clear()
}

// Disable drops all cached ranges and turns the cache off for good. Reads
// keep working and always go to the device.
func (r *Reader) Disable() {
	r.mu.Lock()
	r.cache.Disable()
	r.mu.Unlock()

	r.metrics.RecordDisable()
	r.logger.LogDisable(context.Background(), "disabled by caller", r.controller.MemoryUsage(), r.controller.MemoryLimit())
}

// Disabled reports whether the cache is off.
func (r *Reader) Disabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Disabled()
}

// Len returns the number of cached ranges.
func (r *Reader) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Size()
}

// Ranges returns the cached ranges in ascending order.
func (r *Reader) Ranges() []Range {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Ranges()
}

// Stats returns a snapshot of the cache state.
func (r *Reader) Stats() Stats {
	r.mu.Lock()
	s := Stats{
		Records:  r.cache.Size(),
		Bytes:    r.cache.Bytes(),
		Disabled: r.cache.Disabled(),
	}
	r.mu.Unlock()

	s.MemoryUsage = r.controller.MemoryUsage()
	s.MemoryLimit = r.controller.MemoryLimit()
	return s
}

// Close releases the cached memory and closes the device.
func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	r.mu.Lock()
	r.cache.Clear()
	r.mu.Unlock()

	return r.dev.Close()
}
