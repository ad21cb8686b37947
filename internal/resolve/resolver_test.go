package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/openclub/clubgate/internal/types"
)

// fakeValues is an in-memory DynamicSource keyed by "entityType/id/name".
type fakeValues struct {
	rows map[string]types.EntityAttribute
}

func valueKey(entityType string, id int64, name string) string {
	return fmt.Sprintf("%s/%d/%s", entityType, id, name)
}

func (f *fakeValues) Get(ctx context.Context, entityType string, entityID int64, name string) (types.EntityAttribute, bool, error) {
	row, ok := f.rows[valueKey(entityType, entityID, name)]
	return row, ok, nil
}

// fakeSchema is an in-memory SchemaSource keyed by "entityType.name".
type fakeSchema struct {
	defs map[string]*types.AttributeDefinition
}

func (f *fakeSchema) Get(ctx context.Context, entityType, name string) (*types.AttributeDefinition, bool, error) {
	def, ok := f.defs[entityType+"."+name]
	return def, ok, nil
}

func (f *fakeSchema) ListActive(ctx context.Context, entityType string) ([]types.AttributeDefinition, error) {
	var out []types.AttributeDefinition
	for _, def := range f.defs {
		if def.EntityType == entityType && def.Active {
			out = append(out, *def)
		}
	}
	return out, nil
}

func fixedClock(t *testing.T, s string) func() time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad test time %q: %v", s, err)
	}
	return func() time.Time { return ts }
}

func newTestResolver(t *testing.T, values DynamicSource, schema SchemaSource, now func() time.Time) *Resolver {
	t.Helper()
	r := New(values, schema, nil, nil)
	if err := r.Register(MemberDescriptor(now)); err != nil {
		t.Fatalf("Register(member) error = %v, want nil", err)
	}
	if err := r.Register(EventDescriptor()); err != nil {
		t.Fatalf("Register(event) error = %v, want nil", err)
	}
	return r
}

func TestResolve_Native(t *testing.T) {
	r := newTestResolver(t, nil, nil, nil)
	member := &types.Member{ID: 7, Status: "active", Email: "ada@club.example"}

	res, err := r.Resolve(context.Background(), types.EntityMember, member, "status")
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if res.Source != types.SourceNative {
		t.Errorf("Source = %v, want native", res.Source)
	}
	if res.Value != "active" {
		t.Errorf("Value = %v, want active", res.Value)
	}
	if res.Type != types.TypeText {
		t.Errorf("Type = %v, want text", res.Type)
	}
}

func TestResolve_Computed(t *testing.T) {
	now := fixedClock(t, "2026-09-01T12:00:00Z")
	r := newTestResolver(t, nil, nil, now)

	tests := []struct {
		name   string
		member types.Member
		attr   string
		want   any
	}{
		{
			"caci_valid",
			types.Member{MedicalCertificateExpiry: mustDate(t, "2027-01-01")},
			"caciStatus", types.CertStatusValid,
		},
		{
			"caci_expired",
			types.Member{MedicalCertificateExpiry: mustDate(t, "2026-01-01")},
			"caciStatus", types.CertStatusExpired,
		},
		{
			"caci_missing",
			types.Member{},
			"caciStatus", types.CertStatusMissing,
		},
		{
			"membership_active",
			types.Member{
				MembershipValidFrom:  mustDate(t, "2026-01-01"),
				MembershipValidUntil: mustDate(t, "2026-12-31"),
			},
			"membershipStatus", types.MembershipActive,
		},
		{
			"membership_valid_flag",
			types.Member{
				MembershipValidFrom:  mustDate(t, "2026-01-01"),
				MembershipValidUntil: mustDate(t, "2026-12-31"),
			},
			"isMembershipValid", true,
		},
		{
			"can_register_needs_active_account",
			types.Member{
				Status:               "suspended",
				MembershipValidFrom:  mustDate(t, "2026-01-01"),
				MembershipValidUntil: mustDate(t, "2026-12-31"),
			},
			"canRegisterToEvents", false,
		},
		{
			"age",
			types.Member{BirthDate: mustDate(t, "2008-09-02")},
			"age", int64(17),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.member
			res, err := r.Resolve(context.Background(), types.EntityMember, &m, tt.attr)
			if err != nil {
				t.Fatalf("Resolve(%s) error = %v, want nil", tt.attr, err)
			}
			if res.Source != types.SourceComputed {
				t.Errorf("Source = %v, want computed", res.Source)
			}
			if res.Value != tt.want {
				t.Errorf("Value = %v, want %v", res.Value, tt.want)
			}
		})
	}
}

func TestResolve_AgeWithoutBirthDate(t *testing.T) {
	r := newTestResolver(t, nil, nil, nil)

	res, err := r.Resolve(context.Background(), types.EntityMember, &types.Member{}, "age")
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if res.Source != types.SourceComputed {
		t.Errorf("Source = %v, want computed", res.Source)
	}
	if res.Value != nil {
		t.Errorf("Value = %v, want nil (no birth date on file)", res.Value)
	}
}

func TestResolve_DynamicWithDefinition(t *testing.T) {
	member := &types.Member{ID: 7}
	values := &fakeValues{rows: map[string]types.EntityAttribute{
		valueKey(types.EntityMember, 7, "diving_level"): {
			EntityType: types.EntityMember, EntityID: 7,
			Name: "diving_level", Value: "n2", Type: types.TypeText,
		},
	}}
	schema := &fakeSchema{defs: map[string]*types.AttributeDefinition{
		"member.diving_level": {
			EntityType: types.EntityMember, Name: "diving_level",
			Type: types.TypeSelect, Active: true,
			Options: []types.Option{{Label: "N1", Value: "n1"}, {Label: "N2", Value: "n2"}},
		},
	}}
	r := newTestResolver(t, values, schema, nil)

	res, err := r.Resolve(context.Background(), types.EntityMember, member, "diving_level")
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if res.Source != types.SourceDynamic {
		t.Errorf("Source = %v, want dynamic", res.Source)
	}
	if res.Value != "n2" {
		t.Errorf("Value = %v, want n2", res.Value)
	}
	// Definition type overrides the denormalized row type.
	if res.Type != types.TypeSelect {
		t.Errorf("Type = %v, want select", res.Type)
	}
}

func TestResolve_DynamicDecodesRowType(t *testing.T) {
	member := &types.Member{ID: 3}
	values := &fakeValues{rows: map[string]types.EntityAttribute{
		valueKey(types.EntityMember, 3, "dive_count"): {
			EntityType: types.EntityMember, EntityID: 3,
			Name: "dive_count", Value: "42", Type: types.TypeNumber,
		},
	}}
	r := newTestResolver(t, values, nil, nil)

	res, err := r.Resolve(context.Background(), types.EntityMember, member, "dive_count")
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if res.Value != int64(42) {
		t.Errorf("Value = %v (%T), want int64 42", res.Value, res.Value)
	}
}

func TestResolve_DynamicDecodeFailure(t *testing.T) {
	member := &types.Member{ID: 3}
	values := &fakeValues{rows: map[string]types.EntityAttribute{
		valueKey(types.EntityMember, 3, "joined_on"): {
			EntityType: types.EntityMember, EntityID: 3,
			Name: "joined_on", Value: "not-a-date", Type: types.TypeDate,
		},
	}}
	r := newTestResolver(t, values, nil, nil)

	_, err := r.Resolve(context.Background(), types.EntityMember, member, "joined_on")
	if !errors.Is(err, types.ErrDecodeFailed) {
		t.Fatalf("Resolve() error = %v, want ErrDecodeFailed", err)
	}
}

func TestResolve_NativeShadowsDynamic(t *testing.T) {
	member := &types.Member{ID: 7, Status: "active"}
	values := &fakeValues{rows: map[string]types.EntityAttribute{
		valueKey(types.EntityMember, 7, "status"): {
			EntityType: types.EntityMember, EntityID: 7,
			Name: "status", Value: "stored-shadow", Type: types.TypeText,
		},
	}}
	r := newTestResolver(t, values, nil, nil)

	res, err := r.Resolve(context.Background(), types.EntityMember, member, "status")
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if res.Source != types.SourceNative {
		t.Errorf("Source = %v, want native (native wins over dynamic)", res.Source)
	}
	if res.Value != "active" {
		t.Errorf("Value = %v, want active", res.Value)
	}
}

func TestResolve_Absent(t *testing.T) {
	r := newTestResolver(t, &fakeValues{}, nil, nil)

	res, err := r.Resolve(context.Background(), types.EntityMember, &types.Member{ID: 1}, "nowhere")
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil (absence is not an error)", err)
	}
	if !res.Absent() {
		t.Errorf("Absent() = false, want true")
	}
	if res.Value != nil {
		t.Errorf("Value = %v, want nil", res.Value)
	}
}

func TestResolve_UnknownEntityType(t *testing.T) {
	r := newTestResolver(t, nil, nil, nil)

	_, err := r.Resolve(context.Background(), "spaceship", nil, "status")
	if !errors.Is(err, types.ErrUnknownEntityType) {
		t.Fatalf("Resolve() error = %v, want ErrUnknownEntityType", err)
	}
}

func TestResolve_InstanceTypeMismatch(t *testing.T) {
	r := newTestResolver(t, nil, nil, nil)

	if _, err := r.Resolve(context.Background(), types.EntityMember, &types.Event{}, "status"); err == nil {
		t.Fatalf("Resolve() error = nil, want instance mismatch error")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := New(nil, nil, nil, nil)
	if err := r.Register(EventDescriptor()); err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}
	if err := r.Register(EventDescriptor()); err == nil {
		t.Fatalf("Register() second time error = nil, want duplicate error")
	}
}

func TestAttributeType(t *testing.T) {
	schema := &fakeSchema{defs: map[string]*types.AttributeDefinition{
		"member.diving_level": {
			EntityType: types.EntityMember, Name: "diving_level",
			Type: types.TypeSelect, Active: true,
			Options: []types.Option{{Label: "N1", Value: "n1"}},
		},
	}}
	r := newTestResolver(t, nil, schema, nil)

	tests := []struct {
		name      string
		attr      string
		wantType  types.AttributeType
		wantFound bool
	}{
		{"native", "birthDate", types.TypeDate, true},
		{"computed", "isMembershipValid", types.TypeBoolean, true},
		{"dynamic", "diving_level", types.TypeSelect, true},
		{"unknown", "nowhere", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := r.AttributeType(context.Background(), types.EntityMember, tt.attr)
			if err != nil {
				t.Fatalf("AttributeType() error = %v, want nil", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && got != tt.wantType {
				t.Errorf("type = %v, want %v", got, tt.wantType)
			}
		})
	}
}

func TestListAvailableAttributes(t *testing.T) {
	schema := &fakeSchema{defs: map[string]*types.AttributeDefinition{
		"member.diving_level": {
			EntityType: types.EntityMember, Name: "diving_level",
			DisplayName: "Diving Level", Type: types.TypeSelect, Active: true,
			Options: []types.Option{{Label: "N1", Value: "n1"}},
		},
		// Deliberately colliding with the native attribute name.
		"member.status": {
			EntityType: types.EntityMember, Name: "status",
			DisplayName: "Shadowed", Type: types.TypeText, Active: true,
		},
	}}
	r := newTestResolver(t, nil, schema, nil)

	attrs, err := r.ListAvailableAttributes(context.Background(), types.EntityMember)
	if err != nil {
		t.Fatalf("ListAvailableAttributes() error = %v, want nil", err)
	}

	if attrs["diving_level"] != "Diving Level" {
		t.Errorf("diving_level label = %q, want Diving Level", attrs["diving_level"])
	}
	if attrs["status"] != "Account status" {
		t.Errorf("status label = %q, want native label to shadow the definition", attrs["status"])
	}
	for _, name := range []string{"birthDate", "caciStatus", "age"} {
		if _, ok := attrs[name]; !ok {
			t.Errorf("missing attribute %q in dropdown", name)
		}
	}
}

func TestAgeYears(t *testing.T) {
	now := mustDate(t, "2026-09-01")
	tests := []struct {
		name  string
		birth string
		want  int
	}{
		{"birthday_tomorrow", "2008-09-02", 17},
		{"birthday_today", "2008-09-01", 18},
		{"birthday_passed", "2008-08-31", 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ageYears(mustDate(t, tt.birth), now); got != tt.want {
				t.Errorf("ageYears(%s) = %d, want %d", tt.birth, got, tt.want)
			}
		})
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return ts
}
