package media

import (
	"path"
	"strings"

	"guestbook-server/internal/utils/storagekey"
)

// FileType categorizes a media record for the gallery.
type FileType string

const (
	TypePhoto FileType = "photo"
	TypeVideo FileType = "video"
	TypeAudio FileType = "audio"
	TypeOther FileType = "other"
)

var (
	photoExtensions = map[string]struct{}{"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "bmp": {}, "tiff": {}, "tif": {}}
	videoExtensions = map[string]struct{}{"mp4": {}, "webm": {}, "mov": {}, "avi": {}}
	audioExtensions = map[string]struct{}{"mp3": {}, "wav": {}, "ogg": {}, "m4a": {}}
)

// TypeForFileName derives the media type from a file name's extension.
func TypeForFileName(name string) FileType {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if _, ok := photoExtensions[ext]; ok {
		return TypePhoto
	}
	if _, ok := videoExtensions[ext]; ok {
		return TypeVideo
	}
	if _, ok := audioExtensions[ext]; ok {
		return TypeAudio
	}
	return TypeOther
}

// Record is one entry in the metadata index: what was uploaded, by whom,
// when, and where the bytes live. CreatedAt is an RFC 3339 string and the
// sole gallery sort key; RFC 3339 strings in the same zone sort
// lexicographically in time order.
type Record struct {
	ID        string   `json:"id,omitempty"`
	Key       string   `json:"key,omitempty"`
	URL       string   `json:"url,omitempty"`
	Type      FileType `json:"type,omitempty"`
	FileName  string   `json:"fileName,omitempty"`
	MimeType  string   `json:"mimeType,omitempty"`
	Name      string   `json:"name,omitempty"`
	Message   string   `json:"message,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`

	// Fields from earlier schema versions, folded into the canonical ones
	// by Normalize. Kept so old documents round-trip.
	LegacyFileURL  string   `json:"fileURL,omitempty"`
	LegacyFileType FileType `json:"fileType,omitempty"`
}

// Normalize migrates legacy fields and fills derivable gaps: url from
// fileURL, type from fileType or the file extension, fileName from the
// key/url tail.
func (r *Record) Normalize() {
	if r.URL == "" && r.LegacyFileURL != "" {
		r.URL = r.LegacyFileURL
	}
	if r.Type == "" && r.LegacyFileType != "" {
		r.Type = r.LegacyFileType
	}
	if r.FileName == "" {
		if r.Key != "" {
			r.FileName = storagekey.FileName(r.Key)
		} else if r.URL != "" {
			r.FileName = storagekey.FileName(r.URL)
		}
	}
	if r.Type == "" {
		r.Type = TypeForFileName(r.FileName)
	}
}

// MatchesObject reports whether the record already catalogs the stored
// object: matched by key, with a filename-tail fallback for legacy records
// that never carried one.
func (r *Record) MatchesObject(key string) bool {
	if r.Key != "" {
		return r.Key == key
	}
	tail := storagekey.FileName(key)
	if tail == "" {
		return false
	}
	if r.URL != "" && storagekey.FileName(r.URL) == tail {
		return true
	}
	return r.FileName == tail
}
