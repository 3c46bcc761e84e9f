package device

import (
	"context"
	"io"
	"sort"
	"sync"
)

// Memory is an in-memory Device, mainly for tests. It can grow and can be told
// which bytes are bad.
type Memory struct {
	mu     sync.RWMutex
	data   []byte
	bad    map[uint64]struct{}
	reads  int
	closed bool
}

// NewMemory creates a device holding a copy of data.
func NewMemory(data []byte) *Memory {
	copied := make([]byte, len(data))
	copy(copied, data)
	return &Memory{
		data: copied,
		bad:  make(map[uint64]struct{}),
	}
}

// Append adds p to the end of the log and returns the offset it was written at.
func (m *Memory) Append(p []byte) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	off := int64(len(m.data))
	m.data = append(m.data, p...)
	return off
}

// MarkBad records offsets as unreliable.
func (m *Memory) MarkBad(offsets ...uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, off := range offsets {
		m.bad[off] = struct{}{}
	}
}

// Reads returns the number of ReadAt calls served so far.
func (m *Memory) Reads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

func (m *Memory) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}
	m.reads++

	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *Memory) Size(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrClosed
	}
	return int64(len(m.data)), nil
}

// BadOffsets implements BadOffsetReporter.
func (m *Memory) BadOffsets(off int64, n int) []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []uint64
	for o := range m.bad {
		if o >= uint64(off) && o < uint64(off)+uint64(n) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}
