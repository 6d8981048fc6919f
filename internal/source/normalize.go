package source

import (
	"strings"

	"hpic-membership/internal/domain"
)

// normalizeTier lower-cases and trims a tier label. Sources disagree on
// casing ("Classic" vs "classic") but not on vocabulary, so mapping stops
// at canonical form; unknown tiers are caught later by the aggregator.
func normalizeTier(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// normalizeStatus maps the status vocabulary of both upstream systems onto
// the two states the pipeline models. The CRM reports "active"/"lapsed",
// the legacy export used "Current"/"Expired"/"Dropped".
func normalizeStatus(raw string) (domain.MemberStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "current":
		return domain.MemberStatusActive, true
	case "inactive", "lapsed", "expired", "dropped":
		return domain.MemberStatusInactive, true
	default:
		return "", false
	}
}
