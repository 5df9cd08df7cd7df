package storage

import (
	"context"
	"io"
)

// FileStorage defines the contract for the attachment blob store.
type FileStorage interface {
	// Upload stores the content of r and returns its public URL.
	// folder is a logical folder in the store (e.g. "attachments").
	Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error)
	// Delete removes the blob behind fileURL.
	Delete(ctx context.Context, fileURL string) error
}
