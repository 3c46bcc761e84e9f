package wal

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

// FrameHeaderSize is the size of [crc32c u32][len u32].
const FrameHeaderSize = 8

// MaxFrameSize bounds a single frame payload.
const MaxFrameSize = 64 << 20

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

var (
	ErrInvalidCRC    = errors.New("invalid frame checksum")
	ErrFrameTooLarge = errors.New("frame too large")
	ErrEmptyFrame    = errors.New("empty frame payload")
	ErrShortHeader   = errors.New("short frame header")
)

// EncodeFrame appends the framed payload to dst and returns the extended slice.
//
// Format: [CRC32C: 4 bytes] [Length: 4 bytes] [Payload: Length bytes].
// The checksum covers the length field and the payload.
func EncodeFrame(dst, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return dst, ErrEmptyFrame
	}
	if len(payload) > MaxFrameSize {
		return dst, ErrFrameTooLarge
	}

	var hdr [FrameHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(payload)))

	binary.LittleEndian.PutUint32(hdr[:4], frameCRC(hdr[4:], payload))

	dst = append(dst, hdr[:]...)
	return append(dst, payload...), nil
}

// FrameSize returns the encoded size of a payload of n bytes.
func FrameSize(n int) int {
	return FrameHeaderSize + n
}

// ParseHeader splits a frame header into checksum and payload length.
func ParseHeader(hdr []byte) (checksum, length uint32, err error) {
	if len(hdr) < FrameHeaderSize {
		return 0, 0, ErrShortHeader
	}
	checksum = binary.LittleEndian.Uint32(hdr[:4])
	length = binary.LittleEndian.Uint32(hdr[4:8])
	if length == 0 {
		return checksum, length, ErrEmptyFrame
	}
	if length > MaxFrameSize {
		return checksum, length, ErrFrameTooLarge
	}
	return checksum, length, nil
}

// Verify reports whether payload matches the checksum of its header.
func Verify(sum uint32, payload []byte) bool {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))

	return frameCRC(lenBuf[:], payload) == sum
}

// frameCRC is the CRC32C of the length field followed by the payload.
func frameCRC(lenField, payload []byte) uint32 {
	return crc32.Update(crc32.Checksum(lenField, castagnoli), castagnoli, payload)
}

// DecodeFrame reads one frame from r and returns its payload and the number
// of bytes consumed.
func DecodeFrame(r io.Reader) ([]byte, int64, error) {
	var hdr [FrameHeaderSize]byte
	if n, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, int64(n), err
	}

	checksum, length, err := ParseHeader(hdr[:])
	if err != nil {
		return nil, FrameHeaderSize, err
	}

	payload := make([]byte, length)
	if n, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, FrameHeaderSize + int64(n), err
	}

	consumed := int64(FrameHeaderSize) + int64(length)
	if !Verify(checksum, payload) {
		return nil, consumed, ErrInvalidCRC
	}
	return payload, consumed, nil
}
