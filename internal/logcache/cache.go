package logcache

import (
	"fmt"
	"math"

	"github.com/google/btree"
)

// MemoryTracker accounts for the bytes held by the cache.
// AcquireMemory returns an error to refuse an allocation.
type MemoryTracker interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// Options configures a Cache.
type Options struct {
	// Compression selects the in-memory payload representation.
	Compression Compression
	// Memory, if set, is charged for every stored payload byte.
	Memory MemoryTracker
}

// Cache is the interval-indexed log read cache.
type Cache struct {
	index       *btree.BTreeG[*record]
	compression Compression
	memory      MemoryTracker
	storedBytes int64
	disabled    bool
}

// New creates an empty cache.
func New(optFns ...func(o *Options)) *Cache {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Cache{
		index:       newIndex(),
		compression: opts.Compression,
		memory:      opts.Memory,
	}
}

// Size returns the number of cached records.
func (c *Cache) Size() int {
	return c.index.Len()
}

// Bytes returns the number of payload bytes held, after compression.
func (c *Cache) Bytes() int64 {
	return c.storedBytes
}

// Disabled reports whether Disable was called.
func (c *Cache) Disabled() bool {
	return c.disabled
}

// Ranges returns the cached ranges in ascending order.
func (c *Cache) Ranges() []Range {
	out := make([]Range, 0, c.index.Len())
	c.index.Ascend(func(r *record) bool {
		out = append(out, Range{
			Start:            r.start,
			Size:             r.size,
			CommitStateSeqNo: r.seq,
			StoredBytes:      len(r.payload),
			BadOffsets:       int(badCount(r)),
		})
		return true
	})
	return out
}

func badCount(r *record) uint64 {
	if r.bad == nil {
		return 0
	}
	return r.bad.GetCardinality()
}

// Find copies [offset, offset+size) into dst if the range is covered
// contiguously by records tagged with seq. dst must hold at least size bytes
// unless the cache is disabled. dst is not modified on a miss.
func (c *Cache) Find(offset uint64, size uint32, seq uint64, dst []byte) FindResult {
	if c.disabled {
		return FindResult{}
	}
	if len(dst) < int(size) {
		panic(fmt.Sprintf("logcache: find buffer too small: %d < %d", len(dst), size))
	}

	first, ok := c.floor(offset)
	if !ok {
		return FindResult{}
	}

	end := offset + uint64(size)
	cur := offset
	missed := false
	var chain []*record

	c.index.AscendGreaterOrEqual(first, func(r *record) bool {
		if cur >= end {
			return false
		}
		if r.seq != seq || cur < r.start || cur >= r.end() {
			missed = true
			return false
		}
		chain = append(chain, r)
		cur = r.end()
		return true
	})
	if missed || cur < end {
		return FindResult{}
	}

	// Decode everything before touching dst so a miss leaves it untouched.
	payloads := make([][]byte, len(chain))
	for i, r := range chain {
		p, err := decodePayload(r)
		if err != nil {
			return FindResult{}
		}
		payloads[i] = p
	}

	var bad []uint64
	for i, r := range chain {
		chunkStart := max(r.start, offset)
		chunkEnd := min(r.end(), end)
		copy(dst[chunkStart-offset:chunkEnd-offset], payloads[i][chunkStart-r.start:chunkEnd-r.start])
		bad = append(bad, r.badOffsets()...)
	}

	return FindResult{Hit: true, BadOffsets: bad}
}

// Insert caches data as the log bytes at offset, tagged with seq.
//
// Bytes that are already cached are never overwritten: the new range is
// clipped to its uncovered part and replaces only records it fully encloses.
// badOffsets is clipped to the stored sub-range and kept sorted and
// deduplicated, which is the order Find reports them in.
//
// The returned error is non-nil only for an *InvariantError, in which case the
// cache is left unchanged.
func (c *Cache) Insert(data []byte, offset uint64, seq uint64, badOffsets []uint64) (InsertResult, error) {
	if c.disabled {
		return InsertResult{Outcome: RejectedDisabled}, nil
	}
	if len(data) == 0 {
		return InsertResult{Outcome: RejectedEmpty}, nil
	}
	if uint64(len(data)) > math.MaxUint32 || offset > math.MaxUint64-uint64(len(data)) {
		return InsertResult{Outcome: RejectedInvalid}, nil
	}

	p, outcome, err := c.planInsert(offset, uint32(len(data)))
	if err != nil {
		return InsertResult{}, err
	}
	if outcome != Inserted {
		return InsertResult{Outcome: outcome}, nil
	}

	payload, compression := encodePayload(data[p.leftPadding:uint64(len(data))-p.rightPadding], c.compression)

	if c.memory != nil {
		if err := c.memory.AcquireMemory(int64(len(payload))); err != nil {
			return InsertResult{Outcome: RejectedMemory}, nil
		}
	}

	for _, r := range p.enclosed {
		c.remove(r)
	}

	rec := &record{
		start:       p.start,
		size:        uint32(p.end - p.start),
		seq:         seq,
		payload:     payload,
		compression: compression,
		bad:         newBadOffsets(badOffsets, p.start, p.end),
	}
	c.index.ReplaceOrInsert(rec)
	c.storedBytes += int64(len(payload))

	return InsertResult{
		Outcome: Inserted,
		Start:   rec.start,
		Size:    rec.size,
		Removed: len(p.enclosed),
	}, nil
}

// EraseRange removes every record whose start lies in [begin, end) and returns
// how many were removed. Records starting before begin are kept even if they
// extend into the range.
func (c *Cache) EraseRange(begin, end uint64) int {
	if begin >= end || c.index.Len() == 0 {
		return 0
	}
	victims := c.collectFrom(begin, end)
	for _, r := range victims {
		c.remove(r)
	}
	return len(victims)
}

// Clear removes all records.
func (c *Cache) Clear() {
	if c.memory != nil && c.storedBytes > 0 {
		c.memory.ReleaseMemory(c.storedBytes)
	}
	c.index.Clear(false)
	c.storedBytes = 0
}

// Disable clears the cache and turns every later Find and Insert into a no-op.
// It cannot be undone.
func (c *Cache) Disable() {
	c.Clear()
	c.disabled = true
}

func (c *Cache) remove(r *record) {
	c.index.Delete(r)
	c.storedBytes -= int64(len(r.payload))
	if c.memory != nil {
		c.memory.ReleaseMemory(int64(len(r.payload)))
	}
}
