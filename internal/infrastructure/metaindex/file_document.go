package metaindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileDocument stores the index as a JSON file beside the uploaded media.
// The revision is the SHA-256 of the content; the compare-and-swap in Write
// is guarded by a mutex so the check and the rename are atomic with respect
// to other writers in this process, while the surrounding read-modify-write
// cycle stays optimistic.
type FileDocument struct {
	path string
	mu   sync.Mutex
}

// NewFileDocument creates a file-backed metadata document at path.
func NewFileDocument(path string) *FileDocument {
	return &FileDocument{path: path}
}

func revisionOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Read returns the document content and its revision; a missing file is an
// absent document, not an error.
func (d *FileDocument) Read(ctx context.Context) ([]byte, string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("read metadata document: %w", err)
	}
	return data, revisionOf(data), nil
}

// Write persists data if the on-disk revision still matches. The content is
// written to a temp file and renamed into place so readers never observe a
// torn document.
func (d *FileDocument) Write(ctx context.Context, data []byte, revision string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, err := os.ReadFile(d.path)
	switch {
	case os.IsNotExist(err):
		if revision != "" {
			return ErrRevisionMismatch
		}
	case err != nil:
		return fmt.Errorf("read metadata document: %w", err)
	default:
		if revisionOf(current) != revision {
			return ErrRevisionMismatch
		}
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".files-*.json")
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write metadata document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close metadata document: %w", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace metadata document: %w", err)
	}
	return nil
}
