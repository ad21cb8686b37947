package attrstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/openclub/clubgate/internal/core/db"
	"github.com/openclub/clubgate/internal/schema"
	"github.com/openclub/clubgate/internal/types"
)

func newTestQueries(t *testing.T) *db.Queries {
	t.Helper()

	database, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	database.SetMaxOpenConns(1)

	if err := db.MigrateUp(database); err != nil {
		t.Fatalf("MigrateUp() error = %v, want nil", err)
	}
	q, err := db.LoadQueries(database)
	if err != nil {
		t.Fatalf("LoadQueries() error = %v, want nil", err)
	}
	return q
}

// recordingReleaser captures Release calls for assertions.
type recordingReleaser struct {
	mu       sync.Mutex
	released []string
	fail     error
}

func (r *recordingReleaser) Release(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.released = append(r.released, path)
	return nil
}

func TestSet_And_Get(t *testing.T) {
	store := New(newTestQueries(t), nil, nil, nil, nil)
	ctx := context.Background()

	if err := store.Set(ctx, types.EntityMember, 7, "dive_count", "42", types.TypeNumber); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}

	attr, found, err := store.Get(ctx, types.EntityMember, 7, "dive_count")
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if !found {
		t.Fatalf("Get() found = false, want true")
	}
	if attr.Value != "42" {
		t.Errorf("Value = %q, want 42", attr.Value)
	}
	if attr.Type != types.TypeNumber {
		t.Errorf("Type = %v, want number (denormalized at write)", attr.Type)
	}
	if attr.UpdatedAt.IsZero() {
		t.Errorf("UpdatedAt is zero, want write timestamp")
	}
}

func TestSet_Upserts(t *testing.T) {
	store := New(newTestQueries(t), nil, nil, nil, nil)
	ctx := context.Background()

	if err := store.Set(ctx, types.EntityMember, 7, "dive_count", "42", types.TypeNumber); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}
	if err := store.Set(ctx, types.EntityMember, 7, "dive_count", "43", types.TypeNumber); err != nil {
		t.Fatalf("Set() second error = %v, want nil", err)
	}

	all, err := store.GetAll(ctx, types.EntityMember, 7)
	if err != nil {
		t.Fatalf("GetAll() error = %v, want nil", err)
	}
	if len(all) != 1 {
		t.Fatalf("len(GetAll()) = %d, want 1 (upsert, not insert)", len(all))
	}
	if all["dive_count"].Value != "43" {
		t.Errorf("Value = %q, want 43", all["dive_count"].Value)
	}
}

func TestSet_UnknownType(t *testing.T) {
	store := New(newTestQueries(t), nil, nil, nil, nil)

	err := store.Set(context.Background(), types.EntityMember, 7, "x", "y", "dropdown")
	if !errors.Is(err, types.ErrUnknownAttributeType) {
		t.Fatalf("Set() error = %v, want ErrUnknownAttributeType", err)
	}
}

func TestSet_ValidatesAgainstDefinition(t *testing.T) {
	q := newTestQueries(t)
	reg := schema.NewRegistry(q)
	store := New(q, reg, nil, nil, nil)
	ctx := context.Background()

	_, err := reg.Define(ctx, types.AttributeDefinition{
		EntityType:  types.EntityMember,
		Name:        "diving_level",
		DisplayName: "Diving Level",
		Type:        types.TypeSelect,
		Options:     []types.Option{{Label: "N1", Value: "n1"}, {Label: "N2", Value: "n2"}},
	})
	if err != nil {
		t.Fatalf("Define() error = %v, want nil", err)
	}

	if err := store.Set(ctx, types.EntityMember, 7, "diving_level", "n9", types.TypeSelect); !errors.Is(err, types.ErrValidationFailed) {
		t.Fatalf("Set(invalid option) error = %v, want ErrValidationFailed", err)
	}

	// The declared type wins over whatever the caller passes.
	if err := store.Set(ctx, types.EntityMember, 7, "diving_level", "n2", types.TypeText); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}
	attr, found, err := store.Get(ctx, types.EntityMember, 7, "diving_level")
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v, want found", err, found)
	}
	if attr.Type != types.TypeSelect {
		t.Errorf("Type = %v, want select from the definition", attr.Type)
	}
}

func TestGet_Missing(t *testing.T) {
	store := New(newTestQueries(t), nil, nil, nil, nil)

	_, found, err := store.Get(context.Background(), types.EntityMember, 7, "nowhere")
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if found {
		t.Fatalf("found = true, want false")
	}
}

func TestRemove(t *testing.T) {
	store := New(newTestQueries(t), nil, nil, nil, nil)
	ctx := context.Background()

	if err := store.Set(ctx, types.EntityMember, 7, "dive_count", "42", types.TypeNumber); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}

	removed, err := store.Remove(ctx, types.EntityMember, 7, "dive_count")
	if err != nil {
		t.Fatalf("Remove() error = %v, want nil", err)
	}
	if !removed {
		t.Fatalf("removed = false, want true")
	}

	removed, err = store.Remove(ctx, types.EntityMember, 7, "dive_count")
	if err != nil {
		t.Fatalf("Remove() second error = %v, want nil", err)
	}
	if removed {
		t.Fatalf("removed = true, want false for missing row")
	}
}

func TestRemove_ReleasesFile(t *testing.T) {
	releaser := &recordingReleaser{}
	store := New(newTestQueries(t), nil, releaser, nil, nil)
	ctx := context.Background()

	if err := store.Set(ctx, types.EntityMember, 7, "certificate", "7/caci.pdf", types.TypeFile); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}
	if err := store.Set(ctx, types.EntityMember, 7, "nickname", "ada", types.TypeText); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}

	if _, err := store.Remove(ctx, types.EntityMember, 7, "certificate"); err != nil {
		t.Fatalf("Remove() error = %v, want nil", err)
	}
	if _, err := store.Remove(ctx, types.EntityMember, 7, "nickname"); err != nil {
		t.Fatalf("Remove() error = %v, want nil", err)
	}

	if len(releaser.released) != 1 || releaser.released[0] != "7/caci.pdf" {
		t.Errorf("released = %v, want only the file-typed value", releaser.released)
	}
}

func TestRemove_ReleaseFailureDoesNotPropagate(t *testing.T) {
	releaser := &recordingReleaser{fail: errors.New("storage offline")}
	store := New(newTestQueries(t), nil, releaser, nil, nil)
	ctx := context.Background()

	if err := store.Set(ctx, types.EntityMember, 7, "certificate", "7/caci.pdf", types.TypeFile); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}

	removed, err := store.Remove(ctx, types.EntityMember, 7, "certificate")
	if err != nil {
		t.Fatalf("Remove() error = %v, want nil (release failure is logged only)", err)
	}
	if !removed {
		t.Fatalf("removed = false, want true")
	}
}

func TestRemoveAll(t *testing.T) {
	releaser := &recordingReleaser{}
	store := New(newTestQueries(t), nil, releaser, nil, nil)
	ctx := context.Background()

	values := map[string]struct {
		raw      string
		attrType types.AttributeType
	}{
		"certificate": {"7/caci.pdf", types.TypeFile},
		"insurance":   {"7/insurance.pdf", types.TypeFile},
		"nickname":    {"ada", types.TypeText},
	}
	for name, v := range values {
		if err := store.Set(ctx, types.EntityMember, 7, name, v.raw, v.attrType); err != nil {
			t.Fatalf("Set(%s) error = %v, want nil", name, err)
		}
	}
	// A different entity's values must survive.
	if err := store.Set(ctx, types.EntityMember, 8, "nickname", "grace", types.TypeText); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}

	count, err := store.RemoveAll(ctx, types.EntityMember, 7)
	if err != nil {
		t.Fatalf("RemoveAll() error = %v, want nil", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if len(releaser.released) != 2 {
		t.Errorf("released %d files, want 2", len(releaser.released))
	}

	_, found, err := store.Get(ctx, types.EntityMember, 8, "nickname")
	if err != nil || !found {
		t.Fatalf("Get(other entity) = %v, %v, want untouched", err, found)
	}
}

func TestSet_Concurrent(t *testing.T) {
	store := New(newTestQueries(t), nil, nil, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- store.Set(ctx, types.EntityMember, 7, "dive_count", "42", types.TypeNumber)
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Set() error = %v, want nil", err)
		}
	}

	all, err := store.GetAll(ctx, types.EntityMember, 7)
	if err != nil {
		t.Fatalf("GetAll() error = %v, want nil", err)
	}
	if len(all) != 1 {
		t.Fatalf("len(GetAll()) = %d, want 1", len(all))
	}
}
