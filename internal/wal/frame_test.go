package wal

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_RoundTrip(t *testing.T) {
	var buf []byte
	var err error
	payloads := [][]byte{[]byte("a"), []byte("hello world"), bytes.Repeat([]byte{7}, 4096)}
	for _, p := range payloads {
		buf, err = EncodeFrame(buf, p)
		require.NoError(t, err)
	}

	r := bytes.NewReader(buf)
	var total int64
	for _, want := range payloads {
		got, n, err := DecodeFrame(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, int64(FrameSize(len(want))), n)
		total += n
	}
	assert.Equal(t, int64(len(buf)), total)

	_, _, err = DecodeFrame(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrame_Header(t *testing.T) {
	frame, err := EncodeFrame(nil, []byte("abc"))
	require.NoError(t, err)

	sum, length, err := ParseHeader(frame)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), length)
	assert.True(t, Verify(sum, frame[FrameHeaderSize:]))
	assert.False(t, Verify(sum, []byte("abd")))

	_, _, err = ParseHeader(frame[:4])
	assert.ErrorIs(t, err, ErrShortHeader)
}

func TestFrame_Errors(t *testing.T) {
	_, err := EncodeFrame(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, err = EncodeFrame(nil, make([]byte, MaxFrameSize+1))
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	frame, err := EncodeFrame(nil, []byte("payload"))
	require.NoError(t, err)

	t.Run("corrupt payload", func(t *testing.T) {
		bad := append([]byte(nil), frame...)
		bad[len(bad)-1] ^= 0xff
		_, n, err := DecodeFrame(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrInvalidCRC)
		assert.Equal(t, int64(len(bad)), n)
	})

	t.Run("corrupt length", func(t *testing.T) {
		bad := append([]byte(nil), frame...)
		binary.LittleEndian.PutUint32(bad[4:], MaxFrameSize+1)
		_, _, err := DecodeFrame(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})

	t.Run("truncated header", func(t *testing.T) {
		_, n, err := DecodeFrame(bytes.NewReader(frame[:3]))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		assert.Equal(t, int64(3), n)
	})

	t.Run("truncated payload", func(t *testing.T) {
		_, _, err := DecodeFrame(bytes.NewReader(frame[:len(frame)-2]))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("zero length", func(t *testing.T) {
		_, _, err := DecodeFrame(bytes.NewReader(make([]byte, FrameHeaderSize)))
		assert.ErrorIs(t, err, ErrEmptyFrame)
	})
}

func TestFrameCRC(t *testing.T) {
	// Check value from RFC 3720, B.4, split across the two inputs.
	assert.Equal(t, uint32(0xE3069283), frameCRC([]byte("1234"), []byte("56789")))

	frame, err := EncodeFrame(nil, []byte("payload"))
	require.NoError(t, err)
	sum, _, err := ParseHeader(frame)
	require.NoError(t, err)
	assert.Equal(t, frameCRC(frame[4:8], frame[8:]), sum)
	assert.True(t, Verify(sum, frame[8:]))
}
