// Package metaindex persists the media metadata index as a single JSON
// document with optimistic concurrency control. The document is rewritten
// wholesale on every mutation, so concurrent writers are serialized by a
// revision check: read the document with its revision, write back
// conditioned on that revision, retry on mismatch.
package metaindex

import (
	"context"
	"errors"
)

// ErrRevisionMismatch signals that the document changed between a read and
// the conditional write; the caller retries the whole read-modify-write
// cycle.
var ErrRevisionMismatch = errors.New("metadata document revision mismatch")

// Document is a versioned byte blob. An absent document reads as (nil, "",
// nil); writing with an empty revision requires the document to still be
// absent.
type Document interface {
	Read(ctx context.Context) (data []byte, revision string, err error)
	Write(ctx context.Context, data []byte, revision string) error
}
