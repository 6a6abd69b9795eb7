// Package storage provides object storage for staging backend result files.
package storage

import (
	"context"
	"io"
)

// ObjectStore stages result files delivered in callback bodies. The
// destination is the opaque staging address recorded on the job plus the
// derived filename.
type ObjectStore interface {
	// Upload streams src to dest and returns the stored object's content
	// type. length is the declared transfer size; contentType may be empty
	// when the sender declared none.
	Upload(ctx context.Context, src io.Reader, dest string, length int64, contentType string) (string, error)
}
