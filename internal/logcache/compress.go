package logcache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how cached payloads are stored in memory.
type Compression uint8

const (
	// CompressionNone stores payloads as plain copies.
	CompressionNone Compression = iota
	// CompressionLZ4 stores payloads as LZ4 blocks (fast, modest ratio).
	CompressionLZ4
	// CompressionZSTD stores payloads as zstd frames (slower, better ratio).
	CompressionZSTD
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

var errCorruptPayload = errors.New("logcache: corrupt cached payload")

// A payload is kept uncompressed unless compression brings it below this ratio.
const minCompressionRatio = 0.9

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

// encodePayload returns a private copy of data in the requested representation
// and the compression actually applied.
func encodePayload(data []byte, c Compression) ([]byte, Compression) {
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err == nil && n > 0 && float64(n) <= float64(len(data))*minCompressionRatio {
			return buf[:n:n], CompressionLZ4
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		out := enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
		if float64(len(out)) <= float64(len(data))*minCompressionRatio {
			return out, CompressionZSTD
		}
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, CompressionNone
}

// decodePayload returns the plain bytes of r. For uncompressed records the
// stored slice is returned and must not be modified.
func decodePayload(r *record) ([]byte, error) {
	switch r.compression {
	case CompressionNone:
		return r.payload, nil
	case CompressionLZ4:
		out := make([]byte, r.size)
		n, err := lz4.UncompressBlock(r.payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errCorruptPayload, err)
		}
		if n != int(r.size) {
			return nil, fmt.Errorf("%w: lz4 size %d, want %d", errCorruptPayload, n, r.size)
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(r.payload, make([]byte, 0, r.size))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errCorruptPayload, err)
		}
		if len(out) != int(r.size) {
			return nil, fmt.Errorf("%w: zstd size %d, want %d", errCorruptPayload, len(out), r.size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %s", errCorruptPayload, r.compression)
	}
}
