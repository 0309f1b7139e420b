package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"guestbook-server/internal/config"
	"guestbook-server/internal/infrastructure/metrics"
	"guestbook-server/internal/infrastructure/storage"
	"guestbook-server/internal/utils/platformerrors"
	"guestbook-server/internal/utils/recordid"
	"guestbook-server/internal/utils/storagekey"
)

// Service orchestrates uploads, the gallery, and metadata bookkeeping over
// the active storage stack.
type Service struct {
	cfg    *config.Config
	stacks *Selector
	log    zerolog.Logger

	cacheMu sync.Mutex
	cache   map[string]*galleryCache
}

type galleryCache struct {
	files   []Record
	fetched time.Time
}

// NewService creates the media service.
func NewService(cfg *config.Config, stacks *Selector, log zerolog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		stacks: stacks,
		log:    log.With().Str("component", "media-service").Logger(),
		cache:  make(map[string]*galleryCache),
	}
}

// UploadInput carries one direct file upload.
type UploadInput struct {
	Folder      string
	FileName    string
	ContentType string
	Name        string
	Message     string
	Body        io.Reader
}

// UploadTicket is a prepared two-step upload: the client PUTs the bytes to
// UploadURL within ExpiresIn seconds, then registers FileURL via
// SaveMetadata. A transfer that misses the window starts over with a fresh
// key and ticket.
type UploadTicket struct {
	Key       string
	UploadURL string
	FileURL   string
	ExpiresIn int
}

func validateFolder(ctx context.Context, folder string) error {
	if strings.Contains(folder, "..") || strings.ContainsAny(folder, "\\") {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"invalid upload folder", nil, "2f6c1a54-9f0e-4d0b-8a3c-7c1d2e9b4f10")
	}
	return nil
}

// Upload stores the file on the active backend and appends a record to the
// metadata index.
func (s *Service) Upload(ctx context.Context, input UploadInput) (*Record, error) {
	if input.Body == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"no file provided", nil, "b01d33a8-07e2-4c4f-9f5b-6a1e2d3c4b5a")
	}
	if err := validateFolder(ctx, input.Folder); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(input.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to read upload", err, "5c9e7d21-3b4a-4f6c-8d0e-1a2b3c4d5e6f")
	}
	if len(data) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"file is empty", nil, "e4a2b6c8-0d1f-4e3a-9b5c-7d6e5f4a3b2c")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("file exceeds max size of %d bytes", s.cfg.MaxUploadBytes), nil,
			"a7b8c9d0-1e2f-4a3b-8c4d-5e6f7a8b9c0d")
	}

	contentType := input.ContentType
	if detected := mimetype.Detect(data); detected.String() != "application/octet-stream" || contentType == "" {
		contentType = detected.String()
	}

	fileType := TypeForFileName(input.FileName)
	if fileType == TypeOther {
		fileType = typeForContentType(contentType)
	}
	folder := strings.Trim(input.Folder, "/")
	if folder == "" {
		folder = string(fileType)
	}

	stack := s.stacks.Current()
	key := storagekey.New(folder, input.FileName)

	start := time.Now()
	if err := stack.Backend.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		metrics.RecordUpload(stack.Backend.Name(), "error", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"upload failed", err, "c3d4e5f6-7a8b-4c9d-8e0f-1a2b3c4d5e6f")
	}
	metrics.RecordUpload(stack.Backend.Name(), "success", int64(len(data)))
	metrics.RecordStorageOp(stack.Backend.Name(), "upload", "success", time.Since(start).Seconds())

	record := Record{
		ID:        recordid.New(),
		Key:       key,
		URL:       stack.Backend.PublicURL(key),
		Type:      fileType,
		FileName:  input.FileName,
		MimeType:  contentType,
		Name:      strings.TrimSpace(input.Name),
		Message:   strings.TrimSpace(input.Message),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	record.Normalize()

	if _, err := stack.Index.Append(ctx, record); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"upload failed", err, "d4e5f6a7-8b9c-4d0e-9f1a-2b3c4d5e6f7a")
	}
	s.invalidateCache(stack.Backend.Name())

	s.log.Info().
		Str("key", key).
		Str("type", string(record.Type)).
		Int("bytes", len(data)).
		Msg("file uploaded")

	return &record, nil
}

func typeForContentType(contentType string) FileType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return TypePhoto
	case strings.HasPrefix(contentType, "video/"):
		return TypeVideo
	case strings.HasPrefix(contentType, "audio/"):
		return TypeAudio
	default:
		return TypeOther
	}
}

// PrepareUpload reserves a key and issues a pre-signed write URL for a
// direct client-to-bucket transfer. Only backends with presigning support
// it.
func (s *Service) PrepareUpload(ctx context.Context, fileName, contentType, folder string) (*UploadTicket, error) {
	if strings.TrimSpace(contentType) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"content type is required", nil, "f6a7b8c9-0d1e-4f2a-8b3c-4d5e6f7a8b9c")
	}
	if err := validateFolder(ctx, folder); err != nil {
		return nil, err
	}

	stack := s.stacks.Current()
	if !stack.Backend.SupportsPresignedUploads() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotImplemented,
			"presigned uploads not supported by the active storage backend", nil,
			"1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d")
	}

	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = string(TypeForFileName(fileName))
		if folder == string(TypeOther) {
			folder = storagekey.DefaultFolder
		}
	}

	key := storagekey.New(folder, fileName)
	uploadURL, err := stack.Backend.PresignPut(ctx, key, contentType, s.cfg.S3PresignTTL)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"failed to generate upload URL", err, "2b3c4d5e-6f7a-4b8c-9d0e-1f2a3b4c5d6e")
	}

	return &UploadTicket{
		Key:       key,
		UploadURL: uploadURL,
		FileURL:   stack.Backend.PublicURL(key),
		ExpiresIn: int(s.cfg.S3PresignTTL.Seconds()),
	}, nil
}

// SaveMetadata appends a record after the client finished a direct upload.
// A record whose key is already cataloged is a no-op rather than a
// duplicate.
func (s *Service) SaveMetadata(ctx context.Context, record Record) (*Record, bool, error) {
	if record.Key == "" && record.URL == "" && record.LegacyFileURL == "" {
		return nil, false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"record needs a key or a url", nil, "3c4d5e6f-7a8b-4c9d-0e1f-2a3b4c5d6e7f")
	}

	stack := s.stacks.Current()
	if record.ID == "" {
		record.ID = recordid.New()
	}
	if record.URL == "" && record.Key != "" {
		record.URL = stack.Backend.PublicURL(record.Key)
	}
	if record.CreatedAt == "" {
		record.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	record.Normalize()

	added, err := stack.Index.Append(ctx, record)
	if err != nil {
		return nil, false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"failed to save metadata", err, "4d5e6f7a-8b9c-4d0e-1f2a-3b4c5d6e7f8a")
	}
	if added {
		s.invalidateCache(stack.Backend.Name())
	}
	return &record, added, nil
}

// ListFiles returns the gallery listing, newest first. A short-lived cache
// short-circuits repeated calls; forceSync bypasses it and reconciles the
// index against the object listing first.
func (s *Service) ListFiles(ctx context.Context, forceSync bool) ([]Record, error) {
	stack := s.stacks.Current()
	backendName := stack.Backend.Name()

	if !forceSync {
		if files, ok := s.cachedFiles(backendName); ok {
			metrics.RecordGalleryCache(true)
			return files, nil
		}
		metrics.RecordGalleryCache(false)
	}

	if forceSync {
		if _, err := s.Sync(ctx, false); err != nil {
			// A failed reconciliation degrades to whatever the index holds.
			s.log.Warn().Err(err).Msg("forced sync failed, serving current index")
		}
	}

	records, err := stack.Index.Load(ctx)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"failed to load metadata index", err, "5e6f7a8b-9c0d-4e1f-2a3b-4c5d6e7f8a9b")
	}

	sortNewestFirst(records)
	s.storeCache(backendName, records)
	return records, nil
}

// sortNewestFirst orders records descending by createdAt; records without a
// timestamp sort last. RFC 3339 strings compare lexicographically in time
// order, so no parsing is needed.
func sortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].CreatedAt, records[j].CreatedAt
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a > b
	})
}

// DeleteSelector identifies the record to delete: by key, or by id/url for
// legacy local records.
type DeleteSelector struct {
	Key string
	ID  string
	URL string
}

func (d DeleteSelector) matches(record Record) bool {
	if d.Key != "" && record.Key == d.Key {
		return true
	}
	if d.ID != "" && record.ID == d.ID {
		return true
	}
	if d.URL != "" && (record.URL == d.URL || record.LegacyFileURL == d.URL) {
		return true
	}
	return false
}

// Delete removes the underlying object and the matching index record.
func (s *Service) Delete(ctx context.Context, selector DeleteSelector) error {
	if selector.Key == "" && selector.ID == "" && selector.URL == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"missing file identifier", nil, "6f7a8b9c-0d1e-4f2a-3b4c-5d6e7f8a9b0c")
	}

	stack := s.stacks.Current()
	records, err := stack.Index.Load(ctx)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"failed to load metadata index", err, "7a8b9c0d-1e2f-4a3b-4c5d-6e7f8a9b0c1d")
	}

	var target *Record
	for i := range records {
		if selector.matches(records[i]) {
			target = &records[i]
			break
		}
	}
	if target == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"file not found", nil, "8b9c0d1e-2f3a-4b4c-5d6e-7f8a9b0c1d2e")
	}

	key := target.Key
	if key == "" {
		if local, ok := stack.Backend.(*storage.LocalBackend); ok {
			key, _ = local.KeyFromURL(target.URL)
		}
	}
	if key != "" {
		if err := stack.Backend.Delete(ctx, key); err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
				"failed to delete file", err, "9c0d1e2f-3a4b-4c5d-6e7f-8a9b0c1d2e3f")
		}
	}

	match := *target
	if _, err := stack.Index.Remove(ctx, func(record Record) bool {
		return selector.matches(record) || (match.Key != "" && record.Key == match.Key)
	}); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"failed to update metadata index", err, "0d1e2f3a-4b5c-4d6e-7f8a-9b0c1d2e3f4a")
	}

	s.invalidateCache(stack.Backend.Name())
	s.log.Info().Str("key", key).Msg("file deleted")
	return nil
}

// Stat resolves object metadata on the active backend.
func (s *Service) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	return s.stacks.Current().Backend.Stat(ctx, key)
}

// ReadRange streams a byte range from the active backend.
func (s *Service) ReadRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	return s.stacks.Current().Backend.ReadRange(ctx, key, start, end)
}

// Health probes the active backend.
func (s *Service) Health(ctx context.Context) error {
	return s.stacks.Current().Backend.Health(ctx)
}

// StorageName reports the active backend.
func (s *Service) StorageName() string {
	return s.stacks.CurrentName()
}

// SupportsPresignedUploads reports whether the active backend can issue
// pre-signed write URLs.
func (s *Service) SupportsPresignedUploads() bool {
	return s.stacks.Current().Backend.SupportsPresignedUploads()
}

// ToggleStorage flips the active backend for subsequent requests.
func (s *Service) ToggleStorage() (previous, current string) {
	previous, current = s.stacks.Toggle()
	s.invalidateCache(current)
	s.log.Info().Str("previous", previous).Str("current", current).Msg("storage backend toggled")
	return previous, current
}

// UseStorage activates a specific backend.
func (s *Service) UseStorage(name string) error {
	if _, err := s.stacks.Use(name); err != nil {
		return err
	}
	s.invalidateCache(name)
	return nil
}

func (s *Service) cachedFiles(backend string) ([]Record, bool) {
	if s.cfg.GalleryCacheTTL <= 0 {
		return nil, false
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	entry, ok := s.cache[backend]
	if !ok || time.Since(entry.fetched) >= s.cfg.GalleryCacheTTL {
		return nil, false
	}
	files := make([]Record, len(entry.files))
	copy(files, entry.files)
	return files, true
}

func (s *Service) storeCache(backend string, files []Record) {
	if s.cfg.GalleryCacheTTL <= 0 {
		return
	}
	cached := make([]Record, len(files))
	copy(cached, files)
	s.cacheMu.Lock()
	s.cache[backend] = &galleryCache{files: cached, fetched: time.Now()}
	s.cacheMu.Unlock()
}

func (s *Service) invalidateCache(backend string) {
	s.cacheMu.Lock()
	delete(s.cache, backend)
	s.cacheMu.Unlock()
}
