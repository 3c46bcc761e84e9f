package logcache

import "github.com/google/btree"

const btreeDegree = 16

func newIndex() *btree.BTreeG[*record] {
	return btree.NewG[*record](btreeDegree, func(a, b *record) bool {
		return a.start < b.start
	})
}

func pivot(start uint64) *record {
	return &record{start: start}
}

// floor returns the record with the greatest start <= key.
func (c *Cache) floor(key uint64) (*record, bool) {
	var found *record
	c.index.DescendLessOrEqual(pivot(key), func(r *record) bool {
		found = r
		return false
	})
	return found, found != nil
}

// lower returns the record with the greatest start < key.
func (c *Cache) lower(key uint64) (*record, bool) {
	if key == 0 {
		return nil, false
	}
	return c.floor(key - 1)
}

// collectFrom returns records with start in [from, to) in ascending order.
func (c *Cache) collectFrom(from, to uint64) []*record {
	var out []*record
	c.index.AscendRange(pivot(from), pivot(to), func(r *record) bool {
		out = append(out, r)
		return true
	})
	return out
}
