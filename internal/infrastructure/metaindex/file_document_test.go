package metaindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileDocumentReadAbsent(t *testing.T) {
	doc := NewFileDocument(filepath.Join(t.TempDir(), "files.json"))

	data, revision, err := doc.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if data != nil || revision != "" {
		t.Fatalf("Read() = (%q, %q), want absent document", data, revision)
	}
}

func TestFileDocumentWriteRoundTrip(t *testing.T) {
	ctx := context.Background()
	doc := NewFileDocument(filepath.Join(t.TempDir(), "files.json"))

	if err := doc.Write(ctx, []byte(`[]`), ""); err != nil {
		t.Fatalf("initial Write() error: %v", err)
	}

	data, revision, err := doc.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if string(data) != `[]` {
		t.Fatalf("Read() data = %q", data)
	}
	if revision == "" {
		t.Fatal("Read() returned empty revision for existing document")
	}

	if err := doc.Write(ctx, []byte(`[{"id":"gb_1"}]`), revision); err != nil {
		t.Fatalf("conditional Write() error: %v", err)
	}
}

func TestFileDocumentWriteRevisionMismatch(t *testing.T) {
	ctx := context.Background()
	doc := NewFileDocument(filepath.Join(t.TempDir(), "files.json"))

	if err := doc.Write(ctx, []byte(`[]`), ""); err != nil {
		t.Fatalf("initial Write() error: %v", err)
	}
	_, revision, err := doc.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	// A competing writer lands first.
	if err := doc.Write(ctx, []byte(`[{"id":"gb_other"}]`), revision); err != nil {
		t.Fatalf("competing Write() error: %v", err)
	}

	err = doc.Write(ctx, []byte(`[{"id":"gb_stale"}]`), revision)
	if !errors.Is(err, ErrRevisionMismatch) {
		t.Fatalf("stale Write() error = %v, want ErrRevisionMismatch", err)
	}
}

func TestFileDocumentCreateRaceDetected(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "files.json")
	doc := NewFileDocument(path)

	if err := os.WriteFile(path, []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}

	// Empty revision asserts the document is still absent.
	err := doc.Write(ctx, []byte(`[{"id":"gb_1"}]`), "")
	if !errors.Is(err, ErrRevisionMismatch) {
		t.Fatalf("Write() error = %v, want ErrRevisionMismatch", err)
	}
}
