package storage

import (
	"context"
	"io"
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known, or -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object and where it can be fetched from.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
	URL         string
}

// Storage is an S3-compatible object store used for tenant assets such as logos.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}
