// Package storage publishes binary blobs to content-addressed storage and
// returns the content-derived identifier. Writes are all-or-nothing: a
// failed Put leaves nothing behind that callers need to compensate for.
package storage

import (
	"context"
	"io"

	"github.com/veristream/veristream-internal/internal/common/apperrors"
)

var (
	ErrStorage            = apperrors.New("storage error").SetStatusCode(502)
	ErrStorageUnavailable = ErrStorage.New("content store unavailable")
)

// Store is the content-addressable store client.
type Store interface {
	// Put publishes the blob and returns its content address. Identical
	// bytes yield the identical hash.
	Put(ctx context.Context, name string, r io.Reader) (string, apperrors.Error)
}
