package device

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// File is a Device over a log file that may still be growing. Reads use
// pread, so concurrent readers do not share a file position.
type File struct {
	f *os.File
}

// OpenFile opens the log file at path for reading.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &File{f: f}, nil
}

func (d *File) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := d.f.ReadAt(p, off)
	if errors.Is(err, os.ErrClosed) {
		return n, ErrClosed
	}
	return n, err
}

func (d *File) Size(context.Context) (int64, error) {
	fi, err := d.f.Stat()
	if err != nil {
		if errors.Is(err, os.ErrClosed) {
			return 0, ErrClosed
		}
		return 0, err
	}
	return fi.Size(), nil
}

func (d *File) Close() error {
	return d.f.Close()
}

var _ Device = (*File)(nil)
