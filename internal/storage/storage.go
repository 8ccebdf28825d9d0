// Package storage archives the raw bytes of signed documents in an
// S3-compatible object store. Objects are content-addressed by fingerprint and
// written once; there is no delete.
package storage

import (
	"context"
	"io"
	"path"
	"time"
)

// DocumentPrefix is the key prefix of archived documents.
const DocumentPrefix = "documents"

// DocumentKey returns the object key of the document with the given fingerprint.
func DocumentKey(fingerprint string) string {
	return path.Join(DocumentPrefix, fingerprint)
}

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known, -1 otherwise.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Metadata    map[string]string
}

// Storage is the document archive.
type Storage interface {
	// Put uploads an object under the given key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
	// PresignGet returns a time-limited download URL for the object.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
