// Package minio serves sealed log segments stored in MinIO or any other
// S3-compatible object store reachable through minio-go.
package minio
