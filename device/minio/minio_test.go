package minio

import (
	"bytes"
	"context"
	"testing"

	"github.com/hupe1980/walcache/device"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDevice_Integration requires a running MinIO instance.
// Skip if not available.
func TestDevice_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	bucket := "test-walcache"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("0123456789abcdef")
	_, err = client.PutObject(ctx, bucket, "segment.seg", bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	require.NoError(t, err)

	_, err = Open(ctx, client, bucket, "missing.seg")
	assert.ErrorIs(t, err, device.ErrNotFound)

	d, err := Open(ctx, client, bucket, "segment.seg")
	require.NoError(t, err)

	size, err := d.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)

	buf := make([]byte, 4)
	_, err = d.ReadAt(ctx, buf, 10)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(buf))

	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Close(), device.ErrClosed)
}
