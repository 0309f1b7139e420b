package media_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"guestbook-server/internal/config"
	"guestbook-server/internal/domain/media"
	"guestbook-server/internal/infrastructure/metaindex"
	"guestbook-server/internal/infrastructure/storage"
)

type localFixture struct {
	service *media.Service
	backend *storage.LocalBackend
	index   media.Index
}

func newLocalFixture(t *testing.T, cacheTTL time.Duration) *localFixture {
	t.Helper()
	cfg := &config.Config{
		LocalStoragePath:    t.TempDir(),
		LocalStorageBaseURL: "/v1/media",
		MaxUploadBytes:      1 << 20,
		GalleryCacheTTL:     cacheTTL,
		S3PresignTTL:        10 * time.Minute,
	}

	backend, err := storage.NewLocalBackend(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLocalBackend() error: %v", err)
	}
	index := metaindex.NewStore(metaindex.NewFileDocument(filepath.Join(cfg.LocalStoragePath, "metadata.json")), zerolog.Nop())

	selector, err := media.NewSelector("local", map[string]media.Stack{
		"local": {Backend: backend, Index: index},
	})
	if err != nil {
		t.Fatalf("NewSelector() error: %v", err)
	}

	return &localFixture{
		service: media.NewService(cfg, selector, zerolog.Nop()),
		backend: backend,
		index:   index,
	}
}

func TestServiceUpload(t *testing.T) {
	ctx := context.Background()
	f := newLocalFixture(t, 0)

	record, err := f.service.Upload(ctx, media.UploadInput{
		FileName: "wedding.jpg",
		Name:     "Ada",
		Message:  "congratulations!",
		Body:     strings.NewReader("fake image bytes"),
	})
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	if record.ID == "" {
		t.Fatal("Upload() record has no id")
	}
	if record.Type != media.TypePhoto {
		t.Fatalf("Upload() type = %q, want photo", record.Type)
	}
	if !strings.HasPrefix(record.Key, "photo/") || !strings.HasSuffix(record.Key, ".jpg") {
		t.Fatalf("Upload() key = %q, want photo/{id}.jpg", record.Key)
	}
	if record.URL != "/v1/media/"+record.Key {
		t.Fatalf("Upload() url = %q", record.URL)
	}
	if record.CreatedAt == "" {
		t.Fatal("Upload() record has no timestamp")
	}

	// The bytes landed on the backend and the record in the index.
	if _, err := f.backend.Stat(ctx, record.Key); err != nil {
		t.Fatalf("Stat(%q) error: %v", record.Key, err)
	}
	records, err := f.index.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 1 || records[0].Key != record.Key {
		t.Fatalf("index = %+v", records)
	}
}

func TestServiceUploadValidation(t *testing.T) {
	ctx := context.Background()
	f := newLocalFixture(t, 0)

	tests := []struct {
		name  string
		input media.UploadInput
	}{
		{
			name:  "no body",
			input: media.UploadInput{FileName: "a.jpg"},
		},
		{
			name:  "empty file",
			input: media.UploadInput{FileName: "a.jpg", Body: strings.NewReader("")},
		},
		{
			name:  "oversized file",
			input: media.UploadInput{FileName: "a.jpg", Body: strings.NewReader(strings.Repeat("x", (1<<20)+1))},
		},
		{
			name:  "folder escape",
			input: media.UploadInput{FileName: "a.jpg", Folder: "../secrets", Body: strings.NewReader("x")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.service.Upload(ctx, tt.input); err == nil {
				t.Fatal("Upload() accepted invalid input")
			}
		})
	}
}

func TestServicePrepareUploadUnsupportedOnLocal(t *testing.T) {
	f := newLocalFixture(t, 0)

	if _, err := f.service.PrepareUpload(context.Background(), "a.jpg", "image/jpeg", ""); err == nil {
		t.Fatal("PrepareUpload() succeeded on a backend without presigning")
	}
}

func TestServiceSaveMetadataDeduplicates(t *testing.T) {
	ctx := context.Background()
	f := newLocalFixture(t, 0)

	record, added, err := f.service.SaveMetadata(ctx, media.Record{Key: "photo/a.jpg", Name: "Ada"})
	if err != nil {
		t.Fatalf("SaveMetadata() error: %v", err)
	}
	if !added {
		t.Fatal("SaveMetadata() = added false for a new key")
	}
	if record.ID == "" || record.URL == "" || record.CreatedAt == "" {
		t.Fatalf("SaveMetadata() did not fill defaults: %+v", record)
	}

	_, added, err = f.service.SaveMetadata(ctx, media.Record{Key: "photo/a.jpg"})
	if err != nil {
		t.Fatalf("repeat SaveMetadata() error: %v", err)
	}
	if added {
		t.Fatal("SaveMetadata() = added true for an existing key")
	}

	records, err := f.index.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("index holds %d records, want 1", len(records))
	}
}

func TestServiceListFilesSortsNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newLocalFixture(t, 0)

	seed := []media.Record{
		{Key: "photo/a.jpg", CreatedAt: "2025-05-01T10:00:00Z"},
		{Key: "photo/b.jpg", CreatedAt: ""},
		{Key: "photo/c.jpg", CreatedAt: "2025-05-02T09:00:00Z"},
	}
	for _, record := range seed {
		if _, err := f.index.Append(ctx, record); err != nil {
			t.Fatalf("Append(%q) error: %v", record.Key, err)
		}
	}

	records, err := f.service.ListFiles(ctx, false)
	if err != nil {
		t.Fatalf("ListFiles() error: %v", err)
	}

	wantOrder := []string{"photo/c.jpg", "photo/a.jpg", "photo/b.jpg"}
	if len(records) != len(wantOrder) {
		t.Fatalf("ListFiles() = %d records, want %d", len(records), len(wantOrder))
	}
	for i, want := range wantOrder {
		if records[i].Key != want {
			t.Fatalf("position %d = %q, want %q", i, records[i].Key, want)
		}
	}
}

func TestServiceListFilesCache(t *testing.T) {
	ctx := context.Background()
	f := newLocalFixture(t, time.Minute)

	if _, _, err := f.service.SaveMetadata(ctx, media.Record{Key: "photo/a.jpg"}); err != nil {
		t.Fatalf("SaveMetadata() error: %v", err)
	}
	if _, err := f.service.ListFiles(ctx, false); err != nil {
		t.Fatalf("ListFiles() error: %v", err)
	}

	// A record appended behind the service's back is invisible until the
	// cache is bypassed.
	if _, err := f.index.Append(ctx, media.Record{Key: "photo/b.jpg"}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	cached, err := f.service.ListFiles(ctx, false)
	if err != nil {
		t.Fatalf("cached ListFiles() error: %v", err)
	}
	if len(cached) != 1 {
		t.Fatalf("cached ListFiles() = %d records, want 1", len(cached))
	}

	fresh, err := f.service.ListFiles(ctx, true)
	if err != nil {
		t.Fatalf("forced ListFiles() error: %v", err)
	}
	if len(fresh) != 2 {
		t.Fatalf("forced ListFiles() = %d records, want 2", len(fresh))
	}
}

func TestServiceDeleteByID(t *testing.T) {
	ctx := context.Background()
	f := newLocalFixture(t, 0)

	record, err := f.service.Upload(ctx, media.UploadInput{
		FileName: "wedding.jpg",
		Body:     strings.NewReader("fake image bytes"),
	})
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	if err := f.service.Delete(ctx, media.DeleteSelector{ID: record.ID}); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	if _, err := f.backend.Stat(ctx, record.Key); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Stat() after delete error = %v, want ErrNotFound", err)
	}
	records, err := f.index.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("index still holds %d records", len(records))
	}
}

func TestServiceDeleteLegacyRecordByURL(t *testing.T) {
	ctx := context.Background()
	f := newLocalFixture(t, 0)

	if err := f.backend.Upload(ctx, "photo/x.jpg", strings.NewReader("x"), 1, "image/jpeg"); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	// Records from the first schema version carry only a URL.
	if _, err := f.index.Append(ctx, media.Record{ID: "gb_legacy", URL: "/v1/media/photo/x.jpg"}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	if err := f.service.Delete(ctx, media.DeleteSelector{URL: "/v1/media/photo/x.jpg"}); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	if _, err := f.backend.Stat(ctx, "photo/x.jpg"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Stat() after delete error = %v, want ErrNotFound", err)
	}
}

func TestServiceDeleteValidation(t *testing.T) {
	ctx := context.Background()
	f := newLocalFixture(t, 0)

	if err := f.service.Delete(ctx, media.DeleteSelector{}); err == nil {
		t.Fatal("Delete() accepted an empty selector")
	}
	if err := f.service.Delete(ctx, media.DeleteSelector{Key: "photo/missing.jpg"}); err == nil {
		t.Fatal("Delete() succeeded for an uncataloged key")
	}
}
