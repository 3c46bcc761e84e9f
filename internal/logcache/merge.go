package logcache

// insertPlan is the validated result of merging [offset, offset+size) into the
// index. Nothing is mutated until the plan is applied.
type insertPlan struct {
	leftPadding  uint64
	rightPadding uint64
	// [start, end) is the sub-range that will be stored.
	start uint64
	end   uint64
	// enclosed are the records replaced by the new one.
	enclosed []*record
}

// planInsert clips the new range against its neighbours and collects the
// records it encloses. It returns Inserted when the plan may be applied.
func (c *Cache) planInsert(offset uint64, size uint32) (insertPlan, InsertOutcome, error) {
	end := offset + uint64(size)
	var p insertPlan

	// A record overlapping the start either swallows the whole range or
	// pushes our start to its end.
	if r, ok := c.floor(offset); ok && offset < r.end() {
		if end <= r.end() {
			return p, RejectedContained, nil
		}
		p.leftPadding = r.end() - offset
	}

	adjusted := offset + p.leftPadding

	// The last record starting before end either begins exactly at our
	// adjusted start, in which case we skip over it, or overlaps our tail.
	if r, ok := c.lower(end); ok {
		if r.start == adjusted {
			if end <= r.end() {
				return p, RejectedDuplicate, nil
			}
			p.leftPadding += uint64(r.size)
			adjusted += uint64(r.size)
		}
		if end <= r.end() {
			p.rightPadding = end - r.start
		}
	}

	p.start = offset + p.leftPadding
	p.end = end - p.rightPadding

	if p.start >= p.end {
		return p, Inserted, c.invariant(offset, size, p, "empty range after clipping")
	}

	for _, r := range c.collectFrom(p.start, p.end) {
		if r.start == p.start && r.end() == p.end {
			return p, RejectedDuplicate, nil
		}
		if r.end() > p.end {
			return p, Inserted, c.invariant(offset, size, p, "record straddles insertion end")
		}
		p.enclosed = append(p.enclosed, r)
	}

	// The key must be free once the enclosed records are gone.
	if r, ok := c.index.Get(pivot(p.start)); ok {
		if len(p.enclosed) == 0 || p.enclosed[0] != r {
			return p, Inserted, c.invariant(offset, size, p, "start key occupied")
		}
	}

	return p, Inserted, nil
}

func (c *Cache) invariant(offset uint64, size uint32, p insertPlan, reason string) error {
	return &InvariantError{
		Offset:       offset,
		Size:         size,
		LeftPadding:  p.leftPadding,
		RightPadding: p.rightPadding,
		Reason:       reason,
		Index:        c.Ranges(),
	}
}
