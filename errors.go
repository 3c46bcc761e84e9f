package walcache

import (
	"errors"
	"fmt"

	"github.com/hupe1980/walcache/internal/logcache"
)

var (
	// ErrClosed is returned by operations on a closed Reader or Writer.
	ErrClosed = errors.New("walcache: closed")

	// ErrNoCommitState is returned by ReadAtCurrent when no
	// commitstate.Source was configured.
	ErrNoCommitState = errors.New("walcache: no commit-state source configured")

	// ErrCorruptFrame is returned by Replay when a frame header or checksum
	// does not validate.
	ErrCorruptFrame = errors.New("walcache: corrupt frame")

	// ErrStopReplay can be returned by a Replay callback to end the walk
	// early without an error.
	ErrStopReplay = errors.New("walcache: stop replay")

	// ErrInvalidRange is returned when a read does not fit the log address space.
	ErrInvalidRange = errors.New("walcache: invalid range")

	// ErrInvariant is returned when the cache detected an internal
	// inconsistency. The cache is cleared when it happens.
	ErrInvariant = logcache.ErrInvariant
)

// FrameError describes a frame that could not be replayed.
//
// It wraps ErrCorruptFrame for checksum and header failures and
// io.ErrUnexpectedEOF for a frame cut off by the end of the log.
type FrameError struct {
	Offset uint64
	Reason string
	Err    error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame at offset %d: %s: %v", e.Offset, e.Reason, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }
