package device

import (
	"context"
	"io"
	"os"
	"sync"
)

// Mapped is a Device over a sealed log segment mapped read-only into memory.
// The segment must not grow or shrink while mapped.
type Mapped struct {
	mu    sync.RWMutex
	data  []byte
	unmap func([]byte) error
}

// OpenMapped maps the sealed segment at path.
func OpenMapped(path string) (*Mapped, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return &Mapped{data: []byte{}}, nil
	}

	data, unmap, err := osMap(f, int(fi.Size()))
	if err != nil {
		return nil, err
	}
	return &Mapped{data: data, unmap: unmap}, nil
}

func (m *Mapped) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return 0, ErrClosed
	}
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *Mapped) Size(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return 0, ErrClosed
	}
	return int64(len(m.data)), nil
}

func (m *Mapped) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return ErrClosed
	}
	var err error
	if m.unmap != nil {
		err = m.unmap(m.data)
	}
	m.data = nil
	return err
}
