// Package storagekey derives collision-free object keys for uploaded media.
package storagekey

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// DefaultFolder is used when the caller does not supply a media category.
const DefaultFolder = "uploads"

// New returns "{folder}/{uuid}{ext}" where ext is taken verbatim from the
// original file name (including the dot), or empty when the name has none.
// Uniqueness rests on the random identifier; no collision check is made.
func New(folder, originalFileName string) string {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		folder = DefaultFolder
	}
	return folder + "/" + uuid.NewString() + path.Ext(originalFileName)
}

// FileName returns the final path segment of a key or URL, used as the
// display name when a record does not carry one.
func FileName(keyOrURL string) string {
	trimmed := strings.TrimRight(keyOrURL, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
