package media

import (
	"context"
	"time"

	"guestbook-server/internal/infrastructure/metrics"
	"guestbook-server/internal/utils/platformerrors"
	"guestbook-server/internal/utils/storagekey"
)

// SyncResult summarizes one reconciliation pass.
type SyncResult struct {
	Added     int  `json:"added"`
	Refreshed int  `json:"refreshed"`
	Partial   bool `json:"partial"`
}

// Sync reconciles the metadata index against the authoritative object
// listing: objects present in storage but absent from the index get a
// minimal back-filled record. The pass is one-directional: a record is
// never pruned just because its object was not seen, which protects against
// transient listing failures masquerading as deletions. With refreshURLs the
// pass also rewrites any record whose url no longer matches the backend's
// resolution of its key.
func (s *Service) Sync(ctx context.Context, refreshURLs bool) (SyncResult, error) {
	stack := s.stacks.Current()
	result := SyncResult{}

	listing, err := stack.Backend.List(ctx)
	if err != nil {
		metrics.RecordSync("error", 0)
		return result, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"failed to list storage objects", err, "1e2f3a4b-5c6d-4e7f-8a9b-0c1d2e3f4a5b")
	}
	result.Partial = !listing.Complete

	records, err := stack.Index.Load(ctx)
	if err != nil {
		metrics.RecordSync("error", 0)
		return result, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"failed to load metadata index", err, "2f3a4b5c-6d7e-4f8a-9b0c-1d2e3f4a5b6c")
	}

	for _, object := range listing.Objects {
		known := false
		for i := range records {
			if records[i].MatchesObject(object.Key) {
				known = true
				break
			}
		}
		if known {
			continue
		}

		record := Record{
			Key:       object.Key,
			URL:       stack.Backend.PublicURL(object.Key),
			Type:      TypeForFileName(object.Key),
			FileName:  storagekey.FileName(object.Key),
			CreatedAt: object.LastModified.UTC().Format(time.RFC3339),
		}
		added, err := stack.Index.Append(ctx, record)
		if err != nil {
			// Best effort: keep back-filling the rest, report a partial pass.
			s.log.Warn().Err(err).Str("key", object.Key).Msg("failed to back-fill record")
			result.Partial = true
			continue
		}
		if added {
			result.Added++
		}
	}

	if refreshURLs {
		patched, err := stack.Index.Patch(ctx, func(record Record) (Record, bool) {
			if record.Key == "" {
				return record, false
			}
			resolved := stack.Backend.PublicURL(record.Key)
			if record.URL == resolved {
				return record, false
			}
			record.URL = resolved
			record.LegacyFileURL = ""
			return record, true
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to refresh record urls")
			result.Partial = true
		} else {
			result.Refreshed = patched
		}
	}

	if result.Added > 0 || result.Refreshed > 0 {
		s.invalidateCache(stack.Backend.Name())
	}

	status := "success"
	if result.Partial {
		status = "partial"
	}
	metrics.RecordSync(status, result.Added)

	s.log.Info().
		Int("added", result.Added).
		Int("refreshed", result.Refreshed).
		Bool("partial", result.Partial).
		Msg("metadata index synchronized")

	return result, nil
}
