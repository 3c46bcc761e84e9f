package device

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a log device does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
var ErrNotFound = os.ErrNotExist

// ErrClosed is returned by operations on a closed device.
var ErrClosed = errors.New("device: closed")

// Device is a byte-addressed view of the log on its physical medium.
// Implementations must be safe for concurrent use.
type Device interface {
	// ReadAt reads len(p) bytes at off. It follows io.ReaderAt semantics:
	// a short read returns a non-nil error (io.EOF at the end of the log).
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the current length of the log in bytes.
	Size(ctx context.Context) (int64, error)
	io.Closer
}

// BadOffsetReporter is implemented by devices that can tell which bytes of a
// range are known to be unreliable (e.g. sectors that failed their checksum).
type BadOffsetReporter interface {
	// BadOffsets returns the absolute offsets in [off, off+n) known to be bad,
	// in ascending order.
	BadOffsets(off int64, n int) []uint64
}

// readerAtDevice adapts an io.ReaderAt with a fixed size.
type readerAtDevice struct {
	r    io.ReaderAt
	size int64
	c    io.Closer
}

// FromReaderAt wraps an io.ReaderAt of known size as a Device. If r also
// implements io.Closer, Close is forwarded.
func FromReaderAt(r io.ReaderAt, size int64) Device {
	d := &readerAtDevice{r: r, size: size}
	if c, ok := r.(io.Closer); ok {
		d.c = c
	}
	return d
}

func (d *readerAtDevice) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off >= d.size {
		return 0, io.EOF
	}
	if rem := d.size - off; int64(len(p)) > rem {
		n, err := d.r.ReadAt(p[:rem], off)
		if err == nil {
			err = io.EOF
		}
		return n, err
	}
	return d.r.ReadAt(p, off)
}

func (d *readerAtDevice) Size(context.Context) (int64, error) {
	return d.size, nil
}

func (d *readerAtDevice) Close() error {
	if d.c != nil {
		return d.c.Close()
	}
	return nil
}
