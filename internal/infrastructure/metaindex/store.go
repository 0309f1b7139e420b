package metaindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"guestbook-server/internal/domain/media"
)

const (
	maxWriteAttempts = 3
	retryBackoff     = 50 * time.Millisecond
)

// Store implements media.Index over a versioned Document. Every mutation is
// a full read-modify-write cycle retried a bounded number of times on
// revision mismatch; exhausting the retries fails the call without
// corrupting the document.
type Store struct {
	doc Document
	log zerolog.Logger
}

// NewStore creates a metadata index store over the given document.
func NewStore(doc Document, log zerolog.Logger) *Store {
	return &Store{
		doc: doc,
		log: log.With().Str("component", "metadata-index").Logger(),
	}
}

func (s *Store) decode(data []byte) []media.Record {
	if len(data) == 0 {
		return nil
	}
	var records []media.Record
	if err := json.Unmarshal(data, &records); err != nil {
		// An unreadable document is treated as empty rather than wedging
		// every write; the synchronizer rebuilds it from the object listing.
		s.log.Warn().Err(err).Msg("metadata document is not valid JSON, treating as empty")
		return nil
	}
	for i := range records {
		records[i].Normalize()
	}
	return records
}

// Load returns all records; an absent document is an empty sequence.
func (s *Store) Load(ctx context.Context) ([]media.Record, error) {
	data, _, err := s.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	return s.decode(data), nil
}

// mutate runs one optimistic read-modify-write cycle per attempt. fn returns
// the new sequence and whether anything changed; an unchanged sequence
// short-circuits without writing.
func (s *Store) mutate(ctx context.Context, fn func([]media.Record) ([]media.Record, bool)) error {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		data, revision, err := s.doc.Read(ctx)
		if err != nil {
			return err
		}

		records, changed := fn(s.decode(data))
		if !changed {
			return nil
		}

		encoded, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("encode metadata document: %w", err)
		}

		err = s.doc.Write(ctx, encoded, revision)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrRevisionMismatch) {
			return err
		}

		s.log.Debug().Int("attempt", attempt).Msg("metadata write conflict, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return fmt.Errorf("metadata write conflict persisted after %d attempts", maxWriteAttempts)
}

// Append adds the record unless its key is already present.
func (s *Store) Append(ctx context.Context, record media.Record) (bool, error) {
	record.Normalize()
	added := false
	err := s.mutate(ctx, func(records []media.Record) ([]media.Record, bool) {
		added = false
		if record.Key != "" {
			for _, existing := range records {
				if existing.Key == record.Key {
					return records, false
				}
			}
		}
		added = true
		return append(records, record), true
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// Remove drops every record matching the predicate.
func (s *Store) Remove(ctx context.Context, match func(media.Record) bool) (int, error) {
	removed := 0
	err := s.mutate(ctx, func(records []media.Record) ([]media.Record, bool) {
		removed = 0
		kept := records[:0]
		for _, record := range records {
			if match(record) {
				removed++
				continue
			}
			kept = append(kept, record)
		}
		return kept, removed > 0
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Patch applies fn to every record, writing back only when something
// changed.
func (s *Store) Patch(ctx context.Context, fn func(media.Record) (media.Record, bool)) (int, error) {
	patched := 0
	err := s.mutate(ctx, func(records []media.Record) ([]media.Record, bool) {
		patched = 0
		for i, record := range records {
			updated, changed := fn(record)
			if changed {
				records[i] = updated
				patched++
			}
		}
		return records, patched > 0
	})
	if err != nil {
		return 0, err
	}
	return patched, nil
}
