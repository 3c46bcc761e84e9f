package logcache

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// record is one contiguous cached span [start, start+size).
type record struct {
	start uint64
	size  uint32
	seq   uint64

	// payload holds the bytes as stored, possibly compressed.
	payload     []byte
	compression Compression

	// bad is nil when the span has no known bad bytes.
	bad *roaring64.Bitmap
}

func (r *record) end() uint64 {
	return r.start + uint64(r.size)
}

func (r *record) badOffsets() []uint64 {
	if r.bad == nil {
		return nil
	}
	return r.bad.ToArray()
}

// Range describes a cached span. It is a diagnostic snapshot and holds no data.
type Range struct {
	Start            uint64
	Size             uint32
	CommitStateSeqNo uint64
	StoredBytes      int
	BadOffsets       int
}

// End returns the exclusive end offset of the range.
func (r Range) End() uint64 {
	return r.Start + uint64(r.Size)
}

// newBadOffsets keeps the offsets inside [start, end) and returns nil if none remain.
func newBadOffsets(offsets []uint64, start, end uint64) *roaring64.Bitmap {
	var bm *roaring64.Bitmap
	for _, off := range offsets {
		if off < start || off >= end {
			continue
		}
		if bm == nil {
			bm = roaring64.New()
		}
		bm.Add(off)
	}
	if bm != nil {
		bm.RunOptimize()
	}
	return bm
}
