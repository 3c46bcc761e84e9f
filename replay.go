package walcache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/walcache/internal/wal"
)

// Frame is one record of the log as seen by Replay.
type Frame struct {
	// Offset is the absolute offset of the frame header.
	Offset uint64
	// Payload is the frame content. It is owned by the callback.
	Payload []byte
	// BadOffsets are unreliable offsets reported for the frame's bytes.
	BadOffsets []uint64
}

// End returns the offset just past the frame.
func (f Frame) End() uint64 {
	return f.Offset + uint64(wal.FrameSize(len(f.Payload)))
}

// Replay walks the frames from offset from to the end of the device, reading
// through the cache under commit-state seq, and calls fn for each frame.
// A log written by Writer has its first frame at FirstFrameOffset.
//
// Replay stops at the first error returned by fn and returns it. A frame
// that fails validation yields a *FrameError.
func (r *Reader) Replay(ctx context.Context, from uint64, seq uint64, fn func(Frame) error) error {
	if r.closed.Load() {
		return ErrClosed
	}

	frames, end, err := r.replay(ctx, from, seq, fn)
	r.logger.LogReplay(ctx, frames, end, err)
	return err
}

func (r *Reader) replay(ctx context.Context, from uint64, seq uint64, fn func(Frame) error) (int, uint64, error) {
	devSize, err := r.dev.Size(ctx)
	if err != nil {
		return 0, from, fmt.Errorf("log size: %w", err)
	}
	size := uint64(devSize)

	frames := 0
	pos := from
	hdr := make([]byte, wal.FrameHeaderSize)

	for pos < size {
		if err := ctx.Err(); err != nil {
			return frames, pos, err
		}
		if size-pos < wal.FrameHeaderSize {
			return frames, pos, &FrameError{Offset: pos, Reason: "truncated header", Err: io.ErrUnexpectedEOF}
		}

		if _, err := r.ReadAt(ctx, hdr, pos, seq); err != nil {
			return frames, pos, err
		}
		checksum, length, err := wal.ParseHeader(hdr)
		if err != nil {
			return frames, pos, &FrameError{Offset: pos, Reason: err.Error(), Err: ErrCorruptFrame}
		}

		payloadOff := pos + wal.FrameHeaderSize
		if size-payloadOff < uint64(length) {
			return frames, pos, &FrameError{Offset: pos, Reason: "truncated payload", Err: io.ErrUnexpectedEOF}
		}

		payload := make([]byte, length)
		res, err := r.ReadAt(ctx, payload, payloadOff, seq)
		if err != nil {
			return frames, pos, err
		}
		if !wal.Verify(checksum, payload) {
			r.Invalidate(pos, payloadOff+uint64(length))
			return frames, pos, &FrameError{Offset: pos, Reason: "checksum mismatch", Err: ErrCorruptFrame}
		}

		f := Frame{Offset: pos, Payload: payload, BadOffsets: res.BadOffsets}
		if err := fn(f); err != nil {
			if errors.Is(err, ErrStopReplay) {
				return frames + 1, f.End(), nil
			}
			return frames, pos, err
		}
		frames++
		pos = f.End()
	}
	return frames, pos, nil
}
