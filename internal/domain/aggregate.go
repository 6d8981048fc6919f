package domain

// MonthlyAggregate is one row of the published timeline: the month-end
// snapshot of active membership broken down by tier and by source system.
type MonthlyAggregate struct {
	Month        Month
	TotalActive  int
	TierCounts   map[string]int
	SourceCounts map[string]int
	NetChange    int // TotalActive minus the previous month's; 0 on the first row
}

// Artifact describes a published timeline file.
type Artifact struct {
	Path   string
	SHA256 string
	Rows   int
	Bytes  int64
}

// ValidateTimeline checks the invariants every published timeline must hold:
// strictly increasing gapless months, non-negative counts, tier counts that
// sum to the total, and net changes consistent with consecutive totals. The
// first row's net change must be zero.
func ValidateTimeline(rows []MonthlyAggregate) error {
	for i, row := range rows {
		if row.TotalActive < 0 {
			return ErrValidation("month %s: negative total %d", row.Month, row.TotalActive)
		}

		tierSum := 0
		for tier, n := range row.TierCounts {
			if n < 0 {
				return ErrValidation("month %s: negative count for tier %q", row.Month, tier)
			}
			tierSum += n
		}
		if tierSum != row.TotalActive {
			return ErrValidation("month %s: tier counts sum to %d, total is %d", row.Month, tierSum, row.TotalActive)
		}

		for src, n := range row.SourceCounts {
			if n < 0 {
				return ErrValidation("month %s: negative count for source %q", row.Month, src)
			}
		}

		if i == 0 {
			if row.NetChange != 0 {
				return ErrValidation("month %s: nonzero net change %d on first row", row.Month, row.NetChange)
			}
			continue
		}

		prev := rows[i-1]
		if MonthsBetween(prev.Month, row.Month) != 1 {
			return ErrValidation("timeline gap between %s and %s", prev.Month, row.Month)
		}
		if want := row.TotalActive - prev.TotalActive; row.NetChange != want {
			return ErrValidation("month %s: net change %d, expected %d", row.Month, row.NetChange, want)
		}
	}
	return nil
}
