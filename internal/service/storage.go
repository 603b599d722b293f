package service

import (
	"context"
	"io"
)

// FileStorage abstracts uploading submission files and deleting them again
// during best-effort cleanup. Upload returns the public URL and the storage
// path of the stored object.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, string, error)
	Delete(ctx context.Context, path string) error
}
