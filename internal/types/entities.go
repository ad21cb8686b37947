package types

import "time"

/*
 * Compiled-in entities the eligibility engine evaluates against.
 *
 * Member is the usual subject of event conditions; Event is the gating
 * entity. Both expose native fields plus derived state (certificate and
 * membership validity) computed from those fields. Derived values are pure
 * functions of (entity, now) so evaluation stays deterministic under an
 * injected clock.
 */

// Entity type identifiers used across the schema registry, the value store
// and the resolver. Every persisted attribute row and every condition names
// one of these.
const (
	EntityMember = "member"
	EntityEvent  = "event"
)

// Medical certificate states exposed through the computed caciStatus
// attribute.
const (
	CertStatusValid   = "valid"
	CertStatusExpired = "expired"
	CertStatusMissing = "missing"
)

// Membership states exposed through the computed membershipStatus attribute.
const (
	MembershipActive  = "active"
	MembershipExpired = "expired"
	MembershipPending = "pending"
	MembershipNone    = "none"
)

// Member is a registered person of the organization.
// Zero time fields mean "not on file" (no certificate, no membership window).
type Member struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Status    string // account status: "active", "suspended", ...
	BirthDate time.Time

	// Medical certificate (CACI) expiry; zero means no certificate on file.
	MedicalCertificateExpiry time.Time

	// Current membership validity window; both zero means no membership.
	MembershipValidFrom  time.Time
	MembershipValidUntil time.Time
}

// FullName joins first and last name for display.
func (m *Member) FullName() string {
	switch {
	case m.FirstName == "":
		return m.LastName
	case m.LastName == "":
		return m.FirstName
	default:
		return m.FirstName + " " + m.LastName
	}
}

// CertificateStatus derives the medical certificate state at the given time.
func (m *Member) CertificateStatus(now time.Time) string {
	if m.MedicalCertificateExpiry.IsZero() {
		return CertStatusMissing
	}
	if m.MedicalCertificateExpiry.Before(now) {
		return CertStatusExpired
	}
	return CertStatusValid
}

// MembershipStatus derives the membership state at the given time.
func (m *Member) MembershipStatus(now time.Time) string {
	if m.MembershipValidFrom.IsZero() && m.MembershipValidUntil.IsZero() {
		return MembershipNone
	}
	if !m.MembershipValidFrom.IsZero() && now.Before(m.MembershipValidFrom) {
		return MembershipPending
	}
	if !m.MembershipValidUntil.IsZero() && now.After(m.MembershipValidUntil) {
		return MembershipExpired
	}
	return MembershipActive
}

// MembershipValid reports whether the membership window covers now.
func (m *Member) MembershipValid(now time.Time) bool {
	return m.MembershipStatus(now) == MembershipActive
}

// CanRegisterToEvents reports whether the member may register to events at
// all: an active account with a currently valid membership. Per-event
// conditions are evaluated on top of this baseline.
func (m *Member) CanRegisterToEvents(now time.Time) bool {
	return m.Status == "active" && m.MembershipValid(now)
}

// Event is a gating entity that conditions attach to.
type Event struct {
	ID        int64
	Title     string
	StartDate time.Time
	EndDate   time.Time
	Capacity  int
	Status    string
}
