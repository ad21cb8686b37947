package resolve

import (
	"time"

	"github.com/openclub/clubgate/internal/types"
)

/*
 * Built-in entity descriptors.
 *
 * Each descriptor is the closed attribute table of one compiled-in entity:
 * which native fields and which derived values conditions may reference.
 * Derived values take an injected clock so evaluation is reproducible; the
 * same (subject, conditions, now) triple always yields the same outcome.
 *
 * Attribute names are the identifiers administrators type into the condition
 * builder, so they follow the form-facing camelCase convention rather than
 * Go field names.
 */

// MemberDescriptor builds the descriptor for the member entity.
// now supplies the evaluation clock for the derived attributes.
func MemberDescriptor(now func() time.Time) Descriptor {
	if now == nil {
		now = time.Now
	}

	member := func(entity any) (*types.Member, bool) {
		m, ok := entity.(*types.Member)
		return m, ok && m != nil
	}

	return Descriptor{
		EntityType: types.EntityMember,
		ID: func(entity any) (int64, bool) {
			m, ok := member(entity)
			if !ok {
				return 0, false
			}
			return m.ID, true
		},
		Native: map[string]Attribute{
			"status": {Label: "Account status", Type: types.TypeText, Get: func(e any) (any, bool) {
				m, ok := member(e)
				if !ok {
					return nil, false
				}
				return m.Status, true
			}},
			"email": {Label: "Email address", Type: types.TypeText, Get: func(e any) (any, bool) {
				m, ok := member(e)
				if !ok {
					return nil, false
				}
				return m.Email, true
			}},
			"firstName": {Label: "First name", Type: types.TypeText, Get: func(e any) (any, bool) {
				m, ok := member(e)
				if !ok {
					return nil, false
				}
				return m.FirstName, true
			}},
			"lastName": {Label: "Last name", Type: types.TypeText, Get: func(e any) (any, bool) {
				m, ok := member(e)
				if !ok {
					return nil, false
				}
				return m.LastName, true
			}},
			"birthDate": {Label: "Birth date", Type: types.TypeDate, Get: func(e any) (any, bool) {
				m, ok := member(e)
				if !ok {
					return nil, false
				}
				return m.BirthDate, true
			}},
		},
		Computed: map[string]Attribute{
			"caciStatus": {Label: "Medical certificate status", Type: types.TypeText, Get: func(e any) (any, bool) {
				m, ok := member(e)
				if !ok {
					return nil, false
				}
				return m.CertificateStatus(now()), true
			}},
			"membershipStatus": {Label: "Membership status", Type: types.TypeText, Get: func(e any) (any, bool) {
				m, ok := member(e)
				if !ok {
					return nil, false
				}
				return m.MembershipStatus(now()), true
			}},
			"isMembershipValid": {Label: "Membership currently valid", Type: types.TypeBoolean, Get: func(e any) (any, bool) {
				m, ok := member(e)
				if !ok {
					return nil, false
				}
				return m.MembershipValid(now()), true
			}},
			"canRegisterToEvents": {Label: "Allowed to register to events", Type: types.TypeBoolean, Get: func(e any) (any, bool) {
				m, ok := member(e)
				if !ok {
					return nil, false
				}
				return m.CanRegisterToEvents(now()), true
			}},
			"age": {Label: "Age in years", Type: types.TypeNumber, Get: func(e any) (any, bool) {
				m, ok := member(e)
				if !ok {
					return nil, false
				}
				if m.BirthDate.IsZero() {
					return nil, true
				}
				return int64(ageYears(m.BirthDate, now())), true
			}},
		},
	}
}

// EventDescriptor builds the descriptor for the event entity.
func EventDescriptor() Descriptor {
	event := func(entity any) (*types.Event, bool) {
		ev, ok := entity.(*types.Event)
		return ev, ok && ev != nil
	}

	return Descriptor{
		EntityType: types.EntityEvent,
		ID: func(entity any) (int64, bool) {
			ev, ok := event(entity)
			if !ok {
				return 0, false
			}
			return ev.ID, true
		},
		Native: map[string]Attribute{
			"title": {Label: "Title", Type: types.TypeText, Get: func(e any) (any, bool) {
				ev, ok := event(e)
				if !ok {
					return nil, false
				}
				return ev.Title, true
			}},
			"status": {Label: "Status", Type: types.TypeText, Get: func(e any) (any, bool) {
				ev, ok := event(e)
				if !ok {
					return nil, false
				}
				return ev.Status, true
			}},
			"startDate": {Label: "Start date", Type: types.TypeDate, Get: func(e any) (any, bool) {
				ev, ok := event(e)
				if !ok {
					return nil, false
				}
				return ev.StartDate, true
			}},
			"endDate": {Label: "End date", Type: types.TypeDate, Get: func(e any) (any, bool) {
				ev, ok := event(e)
				if !ok {
					return nil, false
				}
				return ev.EndDate, true
			}},
			"capacity": {Label: "Capacity", Type: types.TypeNumber, Get: func(e any) (any, bool) {
				ev, ok := event(e)
				if !ok {
					return nil, false
				}
				return int64(ev.Capacity), true
			}},
		},
	}
}

// ageYears computes whole years between birth and now, calendar-accurate.
func ageYears(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	anniversary := birth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}
