package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/zurustar/sheepedit/pkg/level"
	"github.com/zurustar/sheepedit/pkg/validator"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func validLevel(id int) *level.Level {
	l := level.New(id, level.DefaultDefaults())
	l.AddShape(level.IrregularShape{
		Layer:    0,
		IsActive: true,
		Vertices: []level.Vec2{{X: -4, Y: -4}, {X: 4, Y: -4}, {X: 4, Y: 4}, {X: -4, Y: 4}},
	})
	l.TotalLayers = 1
	for i := 1; i <= 3; i++ {
		l.AddCard(level.Card{ID: i, Type: 0, Position: level.Vec2{X: float64(i), Y: 0}, Layer: 0, IsVisible: true})
	}
	return l
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	for i := 0; i < 2; i++ {
		store, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		var n int
		if err := store.sqlDB.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("expected 2 applied migrations, got %d", n)
		}
		_ = store.Close()
	}
}

func TestEntryFromResult(t *testing.T) {
	l := level.New(4, level.DefaultDefaults())
	l.AddCard(level.Card{ID: 1, Position: level.Vec2{X: 0, Y: 0}})
	result := validator.Validate(l)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*3600))

	e := EntryFromResult(4, l, "/levels/Level2D_4.json", result, now)

	if e.LevelID != 4 || e.Name != "Level2D_4" || e.CardCount != 1 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.IsValid || e.ErrorCount != len(result.Errors) || e.WarningCount != len(result.Warnings) {
		t.Errorf("counts do not match result: %+v", e)
	}
	if len(e.Issues) != e.ErrorCount+e.WarningCount {
		t.Errorf("expected %d issues, got %d", e.ErrorCount+e.WarningCount, len(e.Issues))
	}
	if e.Issues[0].Severity != SeverityError {
		t.Errorf("errors should come first, got %s", e.Issues[0].Severity)
	}
	if e.IndexedAt.Location() != time.UTC {
		t.Error("indexed_at should be UTC")
	}
}

func TestEntryFromResult_KeyedByFileID(t *testing.T) {
	// Level2D_5.json に levelId 3 のステージが入っている場合
	l := validLevel(3)
	e := EntryFromResult(5, l, "/levels/Level2D_5.json", validator.Validate(l), time.Now())
	if e.LevelID != 5 {
		t.Errorf("entry should be keyed by file id 5, got %d", e.LevelID)
	}
	if e.Name != "Level2D_3" {
		t.Errorf("name should come from the file contents, got %q", e.Name)
	}
}

func TestUpsertGetRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.February, 22, 16, 40, 0, 0, time.UTC)

	l := validLevel(1)
	input := EntryFromResult(1, l, "Level2D_1.json", validator.Validate(l), now)
	if err := store.Upsert(ctx, input); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != input.Name || got.Path != input.Path {
		t.Fatalf("name/path = %q/%q, want %q/%q", got.Name, got.Path, input.Name, input.Path)
	}
	if !got.IsValid || got.CardCount != 3 || got.ShapeCount != 1 {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if !got.IndexedAt.Equal(now) {
		t.Fatalf("indexed_at = %v, want %v", got.IndexedAt, now)
	}
	if len(got.Issues) != len(input.Issues) {
		t.Fatalf("issues = %d, want %d", len(got.Issues), len(input.Issues))
	}
}

func TestUpsertReplacesIssues(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	broken := level.New(2, level.DefaultDefaults())
	broken.AddCard(level.Card{ID: 1, Position: level.Vec2{X: 0, Y: 0}})
	broken.AddCard(level.Card{ID: 2, Position: level.Vec2{X: 0, Y: 0}})
	if err := store.Upsert(ctx, EntryFromResult(2, broken, "a", validator.Validate(broken), time.Now())); err != nil {
		t.Fatal(err)
	}

	overlapping, err := store.FindByIssue(ctx, validator.CodePositionOverlap)
	if err != nil {
		t.Fatal(err)
	}
	if len(overlapping) != 1 || overlapping[0].LevelID != 2 {
		t.Fatalf("expected level 2 to have overlap issues, got %+v", overlapping)
	}

	fixed := validLevel(2)
	if err := store.Upsert(ctx, EntryFromResult(2, fixed, "b", validator.Validate(fixed), time.Now())); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsValid || got.Path != "b" || got.ErrorCount != 0 {
		t.Fatalf("entry should be replaced, got %+v", got)
	}
	for _, issue := range got.Issues {
		if issue.Severity == SeverityError {
			t.Errorf("old errors should be removed, found %+v", issue)
		}
	}

	overlapping, err = store.FindByIssue(ctx, validator.CodePositionOverlap)
	if err != nil {
		t.Fatal(err)
	}
	if len(overlapping) != 0 {
		t.Errorf("expected no overlapping levels, got %+v", overlapping)
	}
}

func TestListOrderedByID(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	for _, id := range []int{5, 1, 3} {
		l := validLevel(id)
		if err := store.Upsert(ctx, EntryFromResult(id, l, "", validator.Validate(l), time.Now())); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, id := range []int{1, 3, 5} {
		if entries[i].LevelID != id {
			t.Errorf("entry %d: level_id = %d, want %d", i, entries[i].LevelID, id)
		}
	}
}

func TestListEmpty(t *testing.T) {
	entries, err := openTempStore(t).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", entries)
	}
}

func TestGetAndDeleteNotFound(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	l := validLevel(7)
	if err := store.Upsert(ctx, EntryFromResult(7, l, "", validator.Validate(l), time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Upsert(ctx, Entry{LevelID: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, err := store.List(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestUpSection(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no markers", "CREATE TABLE a (x);", "CREATE TABLE a (x);"},
		{"up only", "-- +migrate Up\nCREATE TABLE a (x);", "\nCREATE TABLE a (x);"},
		{"up and down", "-- +migrate Up\nA;\n-- +migrate Down\nB;", "\nA;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := upSection(tt.content); got != tt.want {
				t.Errorf("upSection() = %q, want %q", got, tt.want)
			}
		})
	}
}
