package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNG_Range(t *testing.T) {
	rng := NewRNG(4711)

	for i := 0; i < 1000; i++ {
		off, n := rng.Range(100, 8)
		assert.Less(t, off, uint64(100))
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 8)
	}
}

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(7)
	first := rng.Uint64()
	rng.Reset()
	assert.Equal(t, first, rng.Uint64())
	assert.Equal(t, int64(7), rng.Seed())
}

func TestLogBytes(t *testing.T) {
	whole := LogBytes(10, 20)
	assert.Equal(t, whole[5:9], LogBytes(15, 4))
	assert.Equal(t, LogByte(12), whole[2])
}
