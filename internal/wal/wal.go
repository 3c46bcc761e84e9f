package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hupe1980/walcache/internal/fs"
)

// Durability controls the durability guarantees of the log.
type Durability int

const (
	// DurabilityAsync relies on OS page cache. Fast but risky.
	DurabilityAsync Durability = iota
	// DurabilitySync waits for fsync before Append returns. Concurrent
	// appenders share one fsync (group commit).
	DurabilitySync
)

const (
	logMagic   = "WALCACHE" // 8 bytes
	logVersion = 1          // 4 bytes

	// HeaderSize is the size of the file header. The first frame starts here.
	HeaderSize = 12
)

var (
	ErrIncompatibleVersion = errors.New("incompatible log version")
	ErrInvalidHeader       = errors.New("invalid log header")
)

type Options struct {
	Durability Durability
	// BufferSize is the size of the write buffer in bytes.
	BufferSize int
}

func DefaultOptions() Options {
	return Options{
		Durability: DurabilitySync,
		BufferSize: 64 << 10,
	}
}

// Entry describes an appended frame.
type Entry struct {
	// Offset is the absolute file offset of the first frame byte.
	Offset int64
	// Frame holds the encoded frame bytes. The slice is owned by the caller.
	Frame []byte
}

// End returns the offset just past the frame.
func (e Entry) End() int64 {
	return e.Offset + int64(len(e.Frame))
}

// WAL is an append-only log of checksummed frames.
type WAL struct {
	mu   sync.Mutex
	fs   fs.FileSystem
	file fs.File
	cw   *countingWriter
	path string
	opts Options

	// Group commit state
	syncedOffset int64      // Offset known to be fsync'd
	syncCond     *sync.Cond // Signals the syncer that there is data to sync
	doneCond     *sync.Cond // Signals waiters that a sync completed
	closed       bool
	lastErr      error // Terminal error encountered by background syncer
	wg           sync.WaitGroup
}

type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func (cw *countingWriter) Flush() error {
	return cw.w.Flush()
}

// Open opens or creates a log at the given path.
func Open(fsys fs.FileSystem, path string, optFns ...func(*Options)) (*WAL, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}

	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	offset, err := checkHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &WAL{
		fs:   fsys,
		file: f,
		cw: &countingWriter{
			w: bufio.NewWriterSize(f, opts.BufferSize),
			n: offset,
		},
		path:         path,
		opts:         opts,
		syncedOffset: offset,
	}
	w.syncCond = sync.NewCond(&w.mu)
	w.doneCond = sync.NewCond(&w.mu)

	if opts.Durability == DurabilitySync {
		w.wg.Add(1)
		go w.runSyncer()
	}

	return w, nil
}

// checkHeader writes the header of a new file or validates the header of an
// existing one. It returns the current end of the file.
func checkHeader(f fs.File) (int64, error) {
	stat, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := stat.Size()

	header := make([]byte, HeaderSize)
	if size == 0 {
		copy(header[0:8], logMagic)
		binary.LittleEndian.PutUint32(header[8:12], uint32(logVersion))
		if _, err := f.Write(header); err != nil {
			return 0, err
		}
		if err := f.Sync(); err != nil {
			return 0, err
		}
		return HeaderSize, nil
	}

	if size < HeaderSize {
		return 0, fmt.Errorf("%w: file too small (%d < %d)", ErrInvalidHeader, size, HeaderSize)
	}
	if _, err := f.ReadAt(header, 0); err != nil {
		return 0, err
	}
	if string(header[0:8]) != logMagic {
		return 0, fmt.Errorf("%w: invalid magic %q", ErrInvalidHeader, header[0:8])
	}
	if ver := binary.LittleEndian.Uint32(header[8:12]); ver != logVersion {
		return 0, fmt.Errorf("%w: version %d (expected %d)", ErrIncompatibleVersion, ver, logVersion)
	}
	return size, nil
}

// Path returns the file path of the log.
func (w *WAL) Path() string {
	return w.path
}

// Size returns the current size of the log in bytes, header included.
func (w *WAL) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cw.n
}

func (w *WAL) runSyncer() {
	defer w.wg.Done()
	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		for w.cw.n <= w.syncedOffset && !w.closed {
			w.syncCond.Wait()
		}

		if w.closed && w.cw.n <= w.syncedOffset {
			return
		}

		target := w.cw.n

		w.mu.Unlock()
		err := w.file.Sync()
		w.mu.Lock()

		if err != nil {
			w.lastErr = fmt.Errorf("log sync failed: %w", err)
			w.doneCond.Broadcast()
			return
		}

		if target > w.syncedOffset {
			w.syncedOffset = target
		}
		w.doneCond.Broadcast()
	}
}

// Append frames payload and writes it to the log.
// It respects the configured durability mode.
func (w *WAL) Append(payload []byte) (Entry, error) {
	e, err := w.AppendAsync(payload)
	if err != nil {
		return Entry{}, err
	}
	if w.opts.Durability == DurabilitySync {
		if err := w.WaitFor(e.End()); err != nil {
			return Entry{}, err
		}
	}
	return e, nil
}

// AppendAsync writes a frame and flushes it to the file without waiting for
// fsync. Once it returns, the frame is visible to readers of the file.
func (w *WAL) AppendAsync(payload []byte) (Entry, error) {
	frame, err := EncodeFrame(make([]byte, 0, FrameSize(len(payload))), payload)
	if err != nil {
		return Entry{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return Entry{}, os.ErrClosed
	}
	if w.lastErr != nil {
		return Entry{}, w.lastErr
	}

	offset := w.cw.n
	if _, err := w.cw.Write(frame); err != nil {
		w.lastErr = fmt.Errorf("log write failed: %w", err)
		return Entry{}, w.lastErr
	}
	if err := w.cw.Flush(); err != nil {
		w.lastErr = fmt.Errorf("log flush failed: %w", err)
		return Entry{}, w.lastErr
	}

	if w.opts.Durability == DurabilitySync {
		w.syncCond.Signal()
	}
	return Entry{Offset: offset, Frame: frame}, nil
}

// WaitFor waits until the log is synced up to the given offset.
func (w *WAL) WaitFor(offset int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for w.syncedOffset < offset && !w.closed && w.lastErr == nil {
		w.doneCond.Wait()
	}
	if w.lastErr != nil {
		return w.lastErr
	}
	if w.closed && w.syncedOffset < offset {
		return os.ErrClosed
	}
	return nil
}

// Sync ensures all buffered writes are committed to stable storage.
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return os.ErrClosed
	}
	if w.lastErr != nil {
		return w.lastErr
	}

	if err := w.cw.Flush(); err != nil {
		return err
	}

	// The background syncer only runs in sync mode.
	if w.opts.Durability == DurabilityAsync {
		return w.file.Sync()
	}

	target := w.cw.n
	w.syncCond.Signal()
	for w.syncedOffset < target && !w.closed && w.lastErr == nil {
		w.doneCond.Wait()
	}
	return w.lastErr
}

// Close flushes and closes the log file.
func (w *WAL) Close() error {
	w.mu.Lock()

	if w.closed {
		w.mu.Unlock()
		return os.ErrClosed
	}

	if err := w.cw.Flush(); err != nil {
		w.closed = true
		w.syncCond.Signal()
		w.mu.Unlock()
		w.wg.Wait()
		w.file.Close()
		return err
	}

	w.closed = true
	w.syncCond.Signal()
	w.mu.Unlock()

	w.wg.Wait()

	return w.file.Close()
}

// Reader returns a sequential reader over the frames of the log.
// The caller is responsible for closing it.
func (w *WAL) Reader() (*Reader, error) {
	f, err := w.fs.OpenFile(w.path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(HeaderSize, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{f: f, r: bufio.NewReader(f), offset: HeaderSize}, nil
}

// Reader iterates over frames without going through a cache.
type Reader struct {
	f      fs.File
	r      *bufio.Reader
	offset int64
}

// Next returns the payload of the next frame. Returns io.EOF when done.
func (r *Reader) Next() ([]byte, error) {
	payload, n, err := DecodeFrame(r.r)
	if err == nil {
		r.offset += n
	}
	return payload, err
}

// Offset returns the offset just past the last valid frame.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.f.Close()
}
