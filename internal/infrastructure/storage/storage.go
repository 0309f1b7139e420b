// Package storage provides the physical media backends. Bytes live either
// on the local filesystem or in an S3 bucket; both expose the same Backend
// contract so the rest of the service never cares which one is active.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when a key has no backing object.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object as reported by a listing or stat.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Listing is the result of a full object enumeration. Complete is false when
// the enumeration stopped early on a provider error; the objects collected up
// to that point are still returned so callers can decide whether a partial
// view is acceptable.
type Listing struct {
	Objects  []ObjectInfo
	Complete bool
}

// Backend stores media bytes and resolves client-facing URLs.
type Backend interface {
	// Name identifies the backend ("local" or "s3").
	Name() string

	// Upload persists body under key with the given content type.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// PresignPut returns a short-lived URL bound to key and contentType for
	// a direct client upload. Backends without presigning report it via
	// SupportsPresignedUploads and return an error here.
	PresignPut(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error)

	// SupportsPresignedUploads reports whether PresignPut is available.
	SupportsPresignedUploads() bool

	// PublicURL resolves a key to a stable, non-expiring address a client
	// can fetch the bytes from.
	PublicURL(key string) string

	// Stat returns object metadata, or ErrNotFound.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// ReadRange returns exactly end-start+1 bytes beginning at start.
	ReadRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)

	// List enumerates every stored object, excluding the reserved metadata
	// document. The error is non-nil only when nothing could be enumerated.
	List(ctx context.Context) (Listing, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Health checks that the backend is reachable and writable.
	Health(ctx context.Context) error
}

// ContentTypeForPath determines the content type served for a stored object
// from its file extension. Unknown extensions fall back to a generic binary
// type.
func ContentTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
