package walcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hupe1980/walcache/device"
	"github.com/hupe1980/walcache/internal/fs"
	"github.com/hupe1980/walcache/internal/wal"
)

// Position locates an appended frame in the log.
type Position struct {
	// Offset is the absolute offset of the first frame byte.
	Offset uint64
	// Size is the encoded frame size, header included.
	Size int
}

// End returns the offset just past the frame.
func (p Position) End() uint64 {
	return p.Offset + uint64(p.Size)
}

// Writer appends checksummed frames to a log file and writes them through
// into the caches of attached Readers.
type Writer struct {
	log *wal.WAL

	mu      sync.Mutex
	readers []*Reader
}

// OpenWriter opens or creates the log file at path.
func OpenWriter(path string, optFns ...func(*WriterOptions)) (*Writer, error) {
	return openWriter(fs.Default, path, optFns...)
}

func openWriter(fsys fs.FileSystem, path string, optFns ...func(*WriterOptions)) (*Writer, error) {
	log, err := wal.Open(fsys, path, optFns...)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	return &Writer{log: log}, nil
}

// NewReader opens the log file for reading and attaches the returned Reader,
// so appended frames are cached as they are written.
func (w *Writer) NewReader(optFns ...Option) (*Reader, error) {
	dev, err := device.OpenFile(w.log.Path())
	if err != nil {
		return nil, err
	}
	r := NewReader(dev, optFns...)
	w.Attach(r)
	return r, nil
}

// Attach writes future appends through into r's cache. r must read the same
// log the Writer appends to.
func (w *Writer) Attach(r *Reader) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.readers = append(w.readers, r)
}

// Append writes payload as one frame. Once it returns, the frame is readable
// through attached Readers under commit-state seq without a device read.
func (w *Writer) Append(ctx context.Context, seq uint64, payload []byte) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}

	e, err := w.log.Append(payload)
	if err != nil {
		if errors.Is(err, os.ErrClosed) {
			return Position{}, ErrClosed
		}
		return Position{}, err
	}
	pos := Position{Offset: uint64(e.Offset), Size: len(e.Frame)}

	w.mu.Lock()
	readers := w.readers
	w.mu.Unlock()

	for _, r := range readers {
		if r.closed.Load() {
			continue
		}
		// Caching is best effort; the Reader logs its own faults.
		_, _ = r.populate(ctx, e.Frame, pos.Offset, seq, nil)
	}
	return pos, nil
}

// Size returns the size of the log in bytes, header included.
func (w *Writer) Size() int64 {
	return w.log.Size()
}

// Sync commits buffered frames to stable storage.
func (w *Writer) Sync() error {
	if err := w.log.Sync(); err != nil {
		if errors.Is(err, os.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Close closes the log file. Attached Readers stay open.
func (w *Writer) Close() error {
	if err := w.log.Close(); err != nil {
		if errors.Is(err, os.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}
