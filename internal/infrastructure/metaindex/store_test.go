package metaindex

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"guestbook-server/internal/domain/media"
)

func newFileStore(t *testing.T) *Store {
	t.Helper()
	doc := NewFileDocument(filepath.Join(t.TempDir(), "files.json"))
	return NewStore(doc, zerolog.Nop())
}

func TestStoreLoadEmpty(t *testing.T) {
	store := newFileStore(t)

	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("Load() = %d records, want 0", len(records))
	}
}

func TestStoreAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)

	added, err := store.Append(ctx, media.Record{
		ID:        "gb_1",
		Key:       "photo/a.jpg",
		URL:       "/v1/media/photo/a.jpg",
		CreatedAt: "2025-05-01T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if !added {
		t.Fatal("Append() = false, want true for new record")
	}

	records, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 1 || records[0].Key != "photo/a.jpg" {
		t.Fatalf("Load() = %+v", records)
	}
}

func TestStoreAppendDuplicateKeyIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)

	record := media.Record{ID: "gb_1", Key: "photo/a.jpg"}
	if _, err := store.Append(ctx, record); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	record.ID = "gb_2"
	record.Name = "someone else"
	added, err := store.Append(ctx, record)
	if err != nil {
		t.Fatalf("second Append() error: %v", err)
	}
	if added {
		t.Fatal("Append() = true for duplicate key, want false")
	}

	records, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Load() = %d records, want 1", len(records))
	}
	if records[0].ID != "gb_1" {
		t.Fatalf("duplicate append replaced the original record: %+v", records[0])
	}
}

func TestStoreConcurrentAppends(t *testing.T) {
	// With as many writers as write attempts, every conflict a writer can
	// lose corresponds to another writer's single commit, so all must land.
	ctx := context.Background()
	store := newFileStore(t)

	var wg sync.WaitGroup
	errs := make([]error, maxWriteAttempts)
	for i := 0; i < maxWriteAttempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = store.Append(ctx, media.Record{
				ID:  fmt.Sprintf("gb_%d", n),
				Key: fmt.Sprintf("photo/%d.jpg", n),
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Append(%d) error: %v", i, err)
		}
	}

	records, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != maxWriteAttempts {
		t.Fatalf("Load() = %d records, want %d", len(records), maxWriteAttempts)
	}
	keys := make(map[string]bool)
	for _, record := range records {
		keys[record.Key] = true
	}
	for i := 0; i < maxWriteAttempts; i++ {
		if !keys[fmt.Sprintf("photo/%d.jpg", i)] {
			t.Fatalf("record %d lost in concurrent append", i)
		}
	}
}

func TestStoreRemove(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)

	for _, key := range []string{"photo/a.jpg", "photo/b.jpg", "video/c.mp4"} {
		if _, err := store.Append(ctx, media.Record{Key: key}); err != nil {
			t.Fatalf("Append(%q) error: %v", key, err)
		}
	}

	removed, err := store.Remove(ctx, func(r media.Record) bool {
		return r.Type == media.TypePhoto
	})
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("Remove() = %d, want 2", removed)
	}

	records, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 1 || records[0].Key != "video/c.mp4" {
		t.Fatalf("Load() = %+v", records)
	}
}

func TestStoreRemoveNoMatchDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	doc := &countingDocument{inner: NewFileDocument(filepath.Join(t.TempDir(), "files.json"))}
	store := NewStore(doc, zerolog.Nop())

	if _, err := store.Append(ctx, media.Record{Key: "photo/a.jpg"}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	writesAfterAppend := doc.writes

	removed, err := store.Remove(ctx, func(media.Record) bool { return false })
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if removed != 0 {
		t.Fatalf("Remove() = %d, want 0", removed)
	}
	if doc.writes != writesAfterAppend {
		t.Fatal("Remove() with no matches wrote the document")
	}
}

func TestStorePatch(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)

	for _, key := range []string{"photo/a.jpg", "photo/b.jpg"} {
		if _, err := store.Append(ctx, media.Record{Key: key, URL: "https://old.example.com/" + key}); err != nil {
			t.Fatalf("Append(%q) error: %v", key, err)
		}
	}

	patched, err := store.Patch(ctx, func(r media.Record) (media.Record, bool) {
		if r.Key != "photo/a.jpg" {
			return r, false
		}
		r.URL = "https://new.example.com/" + r.Key
		return r, true
	})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if patched != 1 {
		t.Fatalf("Patch() = %d, want 1", patched)
	}

	records, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	for _, record := range records {
		want := "https://old.example.com/" + record.Key
		if record.Key == "photo/a.jpg" {
			want = "https://new.example.com/" + record.Key
		}
		if record.URL != want {
			t.Fatalf("record %q URL = %q, want %q", record.Key, record.URL, want)
		}
	}
}

func TestStoreCorruptDocumentTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	doc := NewFileDocument(filepath.Join(t.TempDir(), "files.json"))
	if err := doc.Write(ctx, []byte("not json {"), ""); err != nil {
		t.Fatalf("seed Write() error: %v", err)
	}
	store := NewStore(doc, zerolog.Nop())

	records, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("Load() = %d records, want 0 for corrupt document", len(records))
	}

	// The next write replaces the corrupt content with valid JSON.
	if _, err := store.Append(ctx, media.Record{Key: "photo/a.jpg"}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	data, _, err := doc.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	var decoded []media.Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("document is not valid JSON after repair: %v", err)
	}
}

func TestStoreWriteConflictExhaustsRetries(t *testing.T) {
	store := NewStore(&conflictDocument{}, zerolog.Nop())

	_, err := store.Append(context.Background(), media.Record{Key: "photo/a.jpg"})
	if err == nil {
		t.Fatal("Append() succeeded against a permanently conflicting document")
	}
}

// countingDocument counts writes passing through to the inner document.
type countingDocument struct {
	inner  Document
	writes int
}

func (d *countingDocument) Read(ctx context.Context) ([]byte, string, error) {
	return d.inner.Read(ctx)
}

func (d *countingDocument) Write(ctx context.Context, data []byte, revision string) error {
	d.writes++
	return d.inner.Write(ctx, data, revision)
}

// conflictDocument fails every write with a revision mismatch.
type conflictDocument struct{}

func (conflictDocument) Read(ctx context.Context) ([]byte, string, error) { return nil, "", nil }

func (conflictDocument) Write(ctx context.Context, data []byte, revision string) error {
	return ErrRevisionMismatch
}
