package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/walcache/device"
)

// Client is the subset of the S3 API used to read log segments.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Device reads a sealed log segment stored as a single S3 object.
type Device struct {
	client Client
	bucket string
	key    string
	size   int64
	closed atomic.Bool
}

// Key joins rootPrefix and name the way segments are laid out in a bucket.
func Key(rootPrefix, name string) string {
	return path.Join(rootPrefix, name)
}

// Open returns a Device for s3://bucket/key.
func Open(ctx context.Context, client Client, bucket, key string) (*Device, error) {
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, device.ErrNotFound
		}
		return nil, err
	}

	return &Device{
		client: client,
		bucket: bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// ReadAt reads len(p) bytes starting at offset off with a single range GET.
func (d *Device) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if d.closed.Load() {
		return 0, device.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
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

	resp, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	want := int(end - off + 1)
	n, err := io.ReadFull(resp.Body, p[:want])
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
