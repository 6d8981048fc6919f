// Package aggregate computes the monthly membership timeline from a
// normalized record set.
package aggregate

import (
	"fmt"
	"log/slog"
	"slices"

	"hpic-membership/internal/domain"
)

// Service turns member records into the gapless month-by-month timeline.
// The configured tier and source vocabularies are closed: a record outside
// them fails the run rather than silently landing in no column.
type Service struct {
	tiers   []string
	sources []string
	logger  *slog.Logger
}

var _ domain.Aggregator = (*Service)(nil)

// NewService creates an aggregator for the given tier and source vocabularies.
func NewService(tiers, sources []string, logger *slog.Logger) *Service {
	return &Service{tiers: tiers, sources: sources, logger: logger}
}

// Aggregate produces one row per month from the earliest join month through
// asOf. Months with no membership movement still get a row, so the timeline
// is gapless. Records joining after asOf are ignored. An empty record set
// yields an empty timeline.
func (s *Service) Aggregate(records []domain.MemberRecord, asOf domain.Month) ([]domain.MonthlyAggregate, error) {
	if asOf.IsZero() {
		return nil, domain.ErrValidation("aggregate: zero as-of month")
	}

	var start domain.Month
	counted := 0
	for _, rec := range records {
		if !slices.Contains(s.tiers, rec.Tier) {
			return nil, domain.ErrValidation("member %q: tier %q not in configured tiers %v", rec.ID, rec.Tier, s.tiers)
		}
		if !slices.Contains(s.sources, rec.Source) {
			return nil, domain.ErrValidation("member %q: source %q not in configured sources %v", rec.ID, rec.Source, s.sources)
		}

		joined := domain.MonthOf(rec.JoinedOn)
		if joined.After(asOf) {
			continue
		}
		counted++
		if start.IsZero() || joined.Before(start) {
			start = joined
		}
	}
	if counted == 0 {
		return nil, nil
	}

	rows := make([]domain.MonthlyAggregate, 0, domain.MonthsBetween(start, asOf)+1)
	for m := start; !m.After(asOf); m = m.Next() {
		rows = append(rows, s.snapshot(records, m))
	}

	for i := range rows {
		if i > 0 {
			rows[i].NetChange = rows[i].TotalActive - rows[i-1].TotalActive
		}
	}

	if err := domain.ValidateTimeline(rows); err != nil {
		return nil, fmt.Errorf("aggregate self-check: %w", err)
	}

	s.logger.Info("timeline aggregated",
		"from", rows[0].Month.String(), "to", asOf.String(), "months", len(rows))
	return rows, nil
}

// snapshot counts membership at the end of month m.
func (s *Service) snapshot(records []domain.MemberRecord, m domain.Month) domain.MonthlyAggregate {
	row := domain.MonthlyAggregate{
		Month:        m,
		TierCounts:   make(map[string]int, len(s.tiers)),
		SourceCounts: make(map[string]int, len(s.sources)),
	}
	for _, tier := range s.tiers {
		row.TierCounts[tier] = 0
	}
	for _, src := range s.sources {
		row.SourceCounts[src] = 0
	}

	for _, rec := range records {
		if !rec.ActiveIn(m) {
			continue
		}
		row.TotalActive++
		row.TierCounts[rec.Tier]++
		row.SourceCounts[rec.Source]++
	}
	return row
}
