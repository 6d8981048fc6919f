package domain

import "time"

// MemberStatus is a member's current standing as reported by its source.
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// MemberRecord is one member as normalized from an upstream source. Tier and
// Source are canonical lower-case labels; dates are calendar dates in UTC.
type MemberRecord struct {
	ID         string
	Source     string
	Tier       string
	Status     MemberStatus
	JoinedOn   time.Time
	InactiveOn *time.Time // set when the member lapsed; nil while active
}

// Validate checks the record's internal consistency.
func (r *MemberRecord) Validate() error {
	if r.ID == "" {
		return ErrValidation("member record: empty id")
	}
	if r.Source == "" {
		return ErrValidation("member %q: empty source", r.ID)
	}
	if r.Tier == "" {
		return ErrValidation("member %q: empty tier", r.ID)
	}
	if r.JoinedOn.IsZero() {
		return ErrValidation("member %q: no join date", r.ID)
	}
	switch r.Status {
	case MemberStatusActive:
	case MemberStatusInactive:
		if r.InactiveOn == nil {
			return ErrValidation("member %q: inactive but no inactive date", r.ID)
		}
	default:
		return ErrValidation("member %q: invalid status %q", r.ID, r.Status)
	}
	if r.InactiveOn != nil && r.InactiveOn.Before(r.JoinedOn) {
		return ErrValidation("member %q: lapsed before joining", r.ID)
	}
	return nil
}

// ActiveIn reports whether the member counts as active at the end of month m.
// A member counts from the month they joined through the month before they
// lapsed: someone who lapses mid-February is already gone from February's
// snapshot.
func (r *MemberRecord) ActiveIn(m Month) bool {
	if m.Before(MonthOf(r.JoinedOn)) {
		return false
	}
	if r.InactiveOn != nil {
		return m.Before(MonthOf(*r.InactiveOn))
	}
	return r.Status == MemberStatusActive
}
