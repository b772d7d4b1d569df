package stores

import (
	"context"
	"errors"
	"testing"
	"time"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	return store
}

func testRecord(id string, loadedAt time.Time) *LoadRecord {
	return &LoadRecord{
		ID:            id,
		FileName:      "model.stl",
		FileSizeBytes: 1024,
		Format:        "stl_binary",
		Status:        LoadStatusSuccess,
		Vertices:      36,
		Triangles:     12,
		DurationMS:    42,
		LoadedAt:      loadedAt,
	}
}

func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Error("expected an error for a missing path")
	}
}

func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	for _, table := range []string{"loads", "preferences"} {
		var count int
		if err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

func TestRecordAndGetLoad(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	loadedAt := time.Now().UTC().Truncate(time.Second)

	if err := store.RecordLoad(ctx, testRecord("load-1", loadedAt)); err != nil {
		t.Fatalf("failed to record load: %v", err)
	}

	got, err := store.GetLoad(ctx, "load-1")
	if err != nil {
		t.Fatalf("failed to get load: %v", err)
	}

	if got.FileName != "model.stl" || got.Format != "stl_binary" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Triangles != 12 || got.Vertices != 36 {
		t.Errorf("unexpected counts: %d vertices, %d triangles", got.Vertices, got.Triangles)
	}
	if got.Status != LoadStatusSuccess {
		t.Errorf("unexpected status: %s", got.Status)
	}
	if got.Error != nil {
		t.Errorf("unexpected error message: %v", *got.Error)
	}
}

func TestGetLoadNotFound(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	_, err := store.GetLoad(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestRecordFailedLoad(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	msg := "mesh decode failed after 2 attempt(s)"
	record := testRecord("load-err", time.Now().UTC())
	record.Status = LoadStatusFailed
	record.Vertices = 0
	record.Triangles = 0
	record.Error = &msg

	if err := store.RecordLoad(ctx, record); err != nil {
		t.Fatalf("failed to record load: %v", err)
	}

	got, err := store.GetLoad(ctx, "load-err")
	if err != nil {
		t.Fatalf("failed to get load: %v", err)
	}
	if got.Status != LoadStatusFailed {
		t.Errorf("unexpected status: %s", got.Status)
	}
	if got.Error == nil || *got.Error != msg {
		t.Errorf("unexpected error message: %v", got.Error)
	}
}

func TestListLoadsOrdering(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		record := testRecord("load-"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
		if err := store.RecordLoad(ctx, record); err != nil {
			t.Fatalf("failed to record load: %v", err)
		}
	}

	records, err := store.ListLoads(ctx, 2, 0)
	if err != nil {
		t.Fatalf("failed to list loads: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Most recent first.
	if records[0].ID != "load-c" || records[1].ID != "load-b" {
		t.Errorf("unexpected order: %s, %s", records[0].ID, records[1].ID)
	}
}

func TestPruneLoads(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	_ = store.RecordLoad(ctx, testRecord("old", base.Add(-48*time.Hour)))
	_ = store.RecordLoad(ctx, testRecord("new", base))

	pruned, err := store.PruneLoads(ctx, base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("failed to prune loads: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected 1 pruned record, got %d", pruned)
	}

	if _, err := store.GetLoad(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected the old record pruned, got: %v", err)
	}
	if _, err := store.GetLoad(ctx, "new"); err != nil {
		t.Errorf("expected the new record kept, got: %v", err)
	}
}

func TestPreferences(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.SetPreference(ctx, "clip.axis", "y"); err != nil {
		t.Fatalf("failed to set preference: %v", err)
	}
	if err := store.SetPreference(ctx, "clip.axis", "z"); err != nil {
		t.Fatalf("failed to update preference: %v", err)
	}
	if err := store.SetPreference(ctx, "decode.fallback", "true"); err != nil {
		t.Fatalf("failed to set preference: %v", err)
	}

	value, err := store.GetPreference(ctx, "clip.axis")
	if err != nil {
		t.Fatalf("failed to get preference: %v", err)
	}
	if value != "z" {
		t.Errorf("expected updated value %q, got %q", "z", value)
	}

	if _, err := store.GetPreference(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}

	prefs, err := store.ListPreferences(ctx)
	if err != nil {
		t.Fatalf("failed to list preferences: %v", err)
	}
	if len(prefs) != 2 {
		t.Fatalf("expected 2 preferences, got %d", len(prefs))
	}
	// Ordered by key.
	if prefs[0].Key != "clip.axis" || prefs[1].Key != "decode.fallback" {
		t.Errorf("unexpected order: %s, %s", prefs[0].Key, prefs[1].Key)
	}
}
