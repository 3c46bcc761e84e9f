package logcache

import (
	"errors"
	"fmt"
	"strings"
)

// FindResult is the outcome of a lookup.
type FindResult struct {
	// Hit is true if the whole query was served from the cache.
	Hit bool
	// BadOffsets concatenates, in ascending record order, the bad offsets of
	// every record that contributed to a hit. Offsets are not clipped to the
	// queried window.
	BadOffsets []uint64
}

// InsertOutcome classifies the result of an insertion.
type InsertOutcome uint8

const (
	// Inserted means a new record was stored.
	Inserted InsertOutcome = iota
	// RejectedDisabled means the cache is disabled.
	RejectedDisabled
	// RejectedEmpty means the data was empty.
	RejectedEmpty
	// RejectedInvalid means the range does not fit the address space or
	// exceeds the maximum record size.
	RejectedInvalid
	// RejectedContained means the range lies inside a single existing record.
	RejectedContained
	// RejectedDuplicate means the uncovered part of the range is already cached.
	RejectedDuplicate
	// RejectedMemory means the memory tracker refused the bytes.
	RejectedMemory
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case RejectedDisabled:
		return "rejected_disabled"
	case RejectedEmpty:
		return "rejected_empty"
	case RejectedInvalid:
		return "rejected_invalid"
	case RejectedContained:
		return "rejected_contained"
	case RejectedDuplicate:
		return "rejected_duplicate"
	case RejectedMemory:
		return "rejected_memory"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// InsertResult describes what Insert did.
type InsertResult struct {
	Outcome InsertOutcome
	// Start and Size describe the stored sub-range when Outcome is Inserted.
	Start uint64
	Size  uint32
	// Removed is the number of enclosed records the new record replaced.
	Removed int
}

// Inserted reports whether a record was stored.
func (r InsertResult) Inserted() bool {
	return r.Outcome == Inserted
}

// ErrInvariant indicates a defect in the merge computation. The cache state is
// unchanged when it is returned, but callers should not trust the cache any
// longer.
var ErrInvariant = errors.New("logcache: internal invariant violated")

// InvariantError carries the context of an invariant violation.
type InvariantError struct {
	Offset       uint64
	Size         uint32
	LeftPadding  uint64
	RightPadding uint64
	Reason       string
	// Index is a dump of the cached ranges at the time of the violation.
	Index []Range
}

func (e *InvariantError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s: offset=%d size=%d lp=%d rp=%d",
		ErrInvariant, e.Reason, e.Offset, e.Size, e.LeftPadding, e.RightPadding)
	for _, r := range e.Index {
		fmt.Fprintf(&sb, " # %d -> %d", r.Start, r.Size)
	}
	return sb.String()
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }
