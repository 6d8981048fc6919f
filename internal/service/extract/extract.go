// Package extract combines membership records from all configured sources
// into one deduplicated set.
package extract

import (
	"context"
	"log/slog"

	"hpic-membership/internal/domain"
)

// Service reads every configured source and merges the results. Source order
// matters: when two sources report the same member ID, the earlier source in
// the configuration wins.
type Service struct {
	sources []domain.MemberSource
	logger  *slog.Logger
}

var _ domain.Extractor = (*Service)(nil)

// NewService creates an extractor over the given sources, in priority order.
func NewService(sources []domain.MemberSource, logger *slog.Logger) *Service {
	return &Service{sources: sources, logger: logger}
}

// Extract fetches all sources sequentially and merges their records. Any
// source failure or malformed record aborts the whole extraction: the
// pipeline never publishes from a partial roster. A duplicate ID within a
// single source is a ConflictError; across sources the first occurrence wins
// and the shadowed record is logged and skipped.
func (s *Service) Extract(ctx context.Context) ([]domain.MemberRecord, error) {
	seen := make(map[string]domain.MemberRecord) // member ID -> record that claimed it
	var merged []domain.MemberRecord

	for _, src := range s.sources {
		records, err := src.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.logger.Info("source fetched", "source", src.Name(), "records", len(records))

		inSource := make(map[string]struct{}, len(records))
		for _, rec := range records {
			if err := rec.Validate(); err != nil {
				return nil, domain.ErrMalformedRecord(src.Name(), "id "+rec.ID, "%v", err)
			}
			if _, dup := inSource[rec.ID]; dup {
				return nil, domain.ErrConflict("source %q: duplicate member id %q", src.Name(), rec.ID)
			}
			inSource[rec.ID] = struct{}{}

			if kept, dup := seen[rec.ID]; dup {
				// IDs are only unique within a source, so a collision here may
				// be the same member migrated between systems or two unrelated
				// people. Log both join dates so operators can tell which.
				s.logger.Warn("duplicate member across sources, keeping first",
					"id", rec.ID,
					"kept_source", kept.Source, "kept_joined", kept.JoinedOn.Format("2006-01-02"),
					"skipped_source", src.Name(), "skipped_joined", rec.JoinedOn.Format("2006-01-02"))
				continue
			}
			seen[rec.ID] = rec
			merged = append(merged, rec)
		}
	}

	s.logger.Info("extraction complete", "sources", len(s.sources), "members", len(merged))
	return merged, nil
}
