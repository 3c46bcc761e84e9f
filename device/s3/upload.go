package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultPartSize is the multipart chunk size used when archiving segments.
const DefaultPartSize = 16 * 1024 * 1024

// UploadSegment archives a sealed log segment to s3://bucket/key so it can be
// served later through a Device. Large segments are uploaded in parallel parts.
func UploadSegment(ctx context.Context, client manager.UploadAPIClient, bucket, key string, r io.Reader, optFns ...func(*manager.Uploader)) error {
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = DefaultPartSize
		for _, fn := range optFns {
			fn(u)
		}
	})

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("upload segment %s: %w", key, err)
	}
	return nil
}
