package media

import "context"

// Index is the metadata catalog for one storage backend: a single flat
// sequence of records, rewritten wholesale on every mutation.
type Index interface {
	// Load returns all records, normalized. An absent backing document is
	// an empty sequence, not an error.
	Load(ctx context.Context) ([]Record, error)

	// Append adds the record unless one with the same key already exists;
	// it reports whether the record was added.
	Append(ctx context.Context, record Record) (bool, error)

	// Remove drops every record matching the predicate and reports how many
	// were removed.
	Remove(ctx context.Context, match func(Record) bool) (int, error)

	// Patch applies fn to every record, persisting only when fn reports a
	// change; it returns the number of patched records. Used by the
	// synchronizer to refresh stale URLs.
	Patch(ctx context.Context, fn func(Record) (Record, bool)) (int, error)
}
