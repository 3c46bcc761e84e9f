package logcache

import (
	"testing"

	"github.com/hupe1980/walcache/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_RandomInsertsKeepInvariants(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(compression.String(), func(t *testing.T) {
			rng := testutil.NewRNG(42)
			c := New(func(o *Options) { o.Compression = compression })
			covered := make(map[uint64]bool)

			for i := 0; i < 2000; i++ {
				off, n := rng.Range(512, 48)

				if rng.Intn(10) == 0 {
					begin := uint64(rng.Intn(512))
					c.EraseRange(begin, begin+uint64(rng.Intn(64)))
					covered = coverage(c)
					continue
				}

				before := c.Ranges()
				res, err := c.Insert(testutil.LogBytes(off, n), off, testSeq, nil)
				require.NoError(t, err)
				if !res.Inserted() {
					assert.Equal(t, before, c.Ranges(), "rejected insert mutated the cache")
					continue
				}

				// Nothing previously covered may be lost.
				now := coverage(c)
				for o := range covered {
					assert.True(t, now[o], "offset %d lost after inserting [%d,%d)", o, off, off+uint64(n))
				}
				for o := off; o < off+uint64(n); o++ {
					assert.True(t, now[o], "offset %d not covered after insert", o)
				}
				covered = now
				assertNoOverlap(t, c)
			}

			// Every contiguous run must read back the log content.
			for _, r := range c.Ranges() {
				buf := make([]byte, r.Size)
				require.True(t, c.Find(r.Start, r.Size, testSeq, buf).Hit)
				assert.Equal(t, testutil.LogBytes(r.Start, int(r.Size)), buf)
			}
		})
	}
}

func coverage(c *Cache) map[uint64]bool {
	out := make(map[uint64]bool)
	for _, r := range c.Ranges() {
		for o := r.Start; o < r.End(); o++ {
			out[o] = true
		}
	}
	return out
}

func TestCache_RoundTripProperty(t *testing.T) {
	rng := testutil.NewRNG(7)
	for i := 0; i < 200; i++ {
		c := New()
		off := rng.Uint64() >> 1
		data := testutil.LogBytes(off, 1+rng.Intn(4096))

		res, err := c.Insert(data, off, uint64(i), nil)
		require.NoError(t, err)
		require.True(t, res.Inserted())

		buf := make([]byte, len(data))
		require.True(t, c.Find(off, uint32(len(data)), uint64(i), buf).Hit)
		assert.Equal(t, data, buf)

		res, err = c.Insert(data, off, uint64(i), nil)
		require.NoError(t, err)
		assert.False(t, res.Inserted())
		assert.Equal(t, 1, c.Size())
	}
}
