package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"guestbook-server/internal/config"
)

// LocalBackend stores media on the local filesystem, mirroring the
// folder/key structure as a directory tree.
type LocalBackend struct {
	basePath string
	baseURL  string
	log      zerolog.Logger
}

// NewLocalBackend creates a filesystem storage backend rooted at the
// configured path, creating it if needed.
func NewLocalBackend(cfg *config.Config, log zerolog.Logger) (*LocalBackend, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		return nil, errors.New("GUESTBOOK_LOCAL_STORAGE_PATH must not be empty")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	backend := &LocalBackend{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(strings.TrimSpace(cfg.LocalStorageBaseURL), "/"),
		log:      logger,
	}

	logger.Info().
		Str("path", basePath).
		Str("base_url", backend.baseURL).
		Msg("local storage initialized")

	return backend, nil
}

func (l *LocalBackend) Name() string { return "local" }

// BasePath exposes the storage root, used to anchor the metadata document.
func (l *LocalBackend) BasePath() string { return l.basePath }

func (l *LocalBackend) fullPath(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

// Upload writes body to the key's path, creating intermediate directories.
func (l *LocalBackend) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	fullPath := l.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	l.log.Debug().
		Str("key", key).
		Int64("bytes", written).
		Msg("file uploaded to local storage")

	return nil
}

// PresignPut is not supported for local storage (direct upload only).
func (l *LocalBackend) PresignPut(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error) {
	return "", errors.New("presigned PUT not supported for local storage; use the direct upload endpoint")
}

func (l *LocalBackend) SupportsPresignedUploads() bool { return false }

// PublicURL resolves a key to its locally served path.
func (l *LocalBackend) PublicURL(key string) string {
	return l.baseURL + "/" + strings.TrimPrefix(filepath.ToSlash(key), "/")
}

// KeyFromURL reverses PublicURL for records that only carry a URL.
func (l *LocalBackend) KeyFromURL(url string) (string, bool) {
	if l.baseURL != "" && strings.HasPrefix(url, l.baseURL+"/") {
		return strings.TrimPrefix(url, l.baseURL+"/"), true
	}
	return "", false
}

func (l *LocalBackend) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	info, err := os.Stat(l.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, ErrNotFound
		}
		return ObjectInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return ObjectInfo{}, ErrNotFound
	}
	return ObjectInfo{
		Key:          key,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}

// ReadRange returns the inclusive byte range [start, end] of the object.
func (l *LocalBackend) ReadRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	file, err := os.Open(l.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to seek: %w", err)
	}
	return &limitedReadCloser{
		Reader: io.LimitReader(file, end-start+1),
		closer: file,
	}, nil
}

type limitedReadCloser struct {
	io.Reader
	closer io.Closer
}

func (r *limitedReadCloser) Close() error { return r.closer.Close() }

// List walks the storage tree, skipping hidden files and the reserved
// metadata document. A walk error partway through yields a partial listing.
func (l *LocalBackend) List(ctx context.Context) (Listing, error) {
	listing := Listing{Complete: true}

	err := filepath.WalkDir(l.basePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(l.basePath, path)
		if relErr != nil {
			return relErr
		}
		key := filepath.ToSlash(rel)
		if key == "metadata.json" || strings.HasPrefix(key, "metadata/") {
			return nil
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}
		listing.Objects = append(listing.Objects, ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if len(listing.Objects) == 0 {
			return Listing{}, fmt.Errorf("failed to list local storage: %w", err)
		}
		l.log.Warn().Err(err).Msg("local listing stopped early, returning partial result")
		listing.Complete = false
	}

	return listing, nil
}

// Delete removes the object; a missing key is not an error.
func (l *LocalBackend) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.fullPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Health checks that the storage directory is writable.
func (l *LocalBackend) Health(ctx context.Context) error {
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}
