package minio

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/hupe1980/walcache/device"
	"github.com/minio/minio-go/v7"
)

// Device reads a sealed log segment stored in MinIO or another
// S3-compatible object store.
type Device struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
	closed atomic.Bool
}

// Open returns a Device for bucket/key.
func Open(ctx context.Context, client *minio.Client, bucket, key string) (*Device, error) {
	info, err := client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, device.ErrNotFound
		}
		return nil, err
	}

	return &Device{
		client: client,
		bucket: bucket,
		key:    key,
		size:   info.Size,
	}, nil
}

func isNotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NotFound"
}

func (d *Device) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if d.closed.Load() {
		return 0, device.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= d.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	if end >= d.size {
		end = d.size - 1
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end); err != nil {
		return 0, err
	}

	obj, err := d.client.GetObject(ctx, d.bucket, d.key, opts)
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	want := int(end - off + 1)
	n, err := io.ReadFull(obj, p[:want])
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return n, err
	}
	if want < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the object size captured at Open.
func (d *Device) Size(context.Context) (int64, error) {
	if d.closed.Load() {
		return 0, device.ErrClosed
	}
	return d.size, nil
}

func (d *Device) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return device.ErrClosed
	}
	return nil
}

var _ device.Device = (*Device)(nil)
