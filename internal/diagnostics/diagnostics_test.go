package diagnostics

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-shades/internal/shade"
	_ "github.com/nerrad567/gray-logic-shades/migrations"
)

// setupTestRepo opens a migrated database in a temp directory.
func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "diag.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

type logEntry struct {
	level string
	msg   string
}

type mockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (m *mockLogger) Warn(msg string, _ ...any)  { m.add("warn", msg) }
func (m *mockLogger) Error(msg string, _ ...any) { m.add("error", msg) }

func (m *mockLogger) add(level, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, logEntry{level: level, msg: msg})
}

func (m *mockLogger) count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

type failingRepo struct{}

func (failingRepo) Create(context.Context, *Entry) error { return errors.New("disk full") }
func (failingRepo) List(context.Context, Filter) (*ListResult, error) {
	return &ListResult{}, nil
}

func TestSQLiteRepository_CreateAndList(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []*Entry{
		EntryFrom(shade.Diagnostic{Kind: shade.DiagnosticTypeUnknown, ShadeID: "study", Type: 99, Capabilities: 0}),
		EntryFrom(shade.Diagnostic{Kind: shade.DiagnosticCapabilityMismatch, ShadeID: "lounge", Type: 6, Capabilities: 1}),
		EntryFrom(shade.Diagnostic{
			Kind: shade.DiagnosticPropertyMismatch, ShadeID: "lounge", Type: 6, Capabilities: 0,
			Property: shade.PropertySecondary, Observed: true,
		}),
	}
	for i, e := range entries {
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if e.ID == "" {
			t.Error("Create() did not assign an ID")
		}
	}

	all, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 3 || len(all.Entries) != 3 {
		t.Fatalf("List() total = %d, entries = %d, want 3, 3", all.Total, len(all.Entries))
	}
	if all.Limit != defaultListLimit {
		t.Errorf("Limit = %d, want %d", all.Limit, defaultListLimit)
	}

	newest := all.Entries[0]
	if newest.Kind != shade.DiagnosticPropertyMismatch {
		t.Errorf("newest kind = %s, want %s", newest.Kind, shade.DiagnosticPropertyMismatch)
	}
	if newest.Property != shade.PropertySecondary || newest.Observed == nil || !*newest.Observed {
		t.Errorf("newest property = %q observed = %v", newest.Property, newest.Observed)
	}
	if !newest.CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("newest CreatedAt = %v", newest.CreatedAt)
	}

	oldest := all.Entries[2]
	if oldest.Observed != nil {
		t.Error("type_unknown entry should have no observed value")
	}
	if oldest.Message != entries[0].Message {
		t.Errorf("Message = %q, want %q", oldest.Message, entries[0].Message)
	}
}

func TestSQLiteRepository_ListFilter(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, d := range []shade.Diagnostic{
		{Kind: shade.DiagnosticTypeUnknown, ShadeID: "a", Type: 99},
		{Kind: shade.DiagnosticTypeUnknown, ShadeID: "b", Type: 98},
		{Kind: shade.DiagnosticCapabilityUnknown, ShadeID: "b", Type: 6, Capabilities: 77},
	} {
		if err := repo.Create(ctx, EntryFrom(d)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"by kind", Filter{Kind: shade.DiagnosticTypeUnknown}, 2},
		{"by shade", Filter{ShadeID: "b"}, 2},
		{"by type", Filter{Type: 6}, 1},
		{"combined", Filter{Kind: shade.DiagnosticTypeUnknown, ShadeID: "b"}, 1},
		{"no match", Filter{ShadeID: "missing"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got.Total != tt.want || len(got.Entries) != tt.want {
				t.Errorf("total = %d, entries = %d, want %d", got.Total, len(got.Entries), tt.want)
			}
		})
	}
}

func TestSQLiteRepository_ListPaging(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Create(ctx, EntryFrom(shade.Diagnostic{Kind: shade.DiagnosticTypeUnknown, Type: 90 + i})); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	page, err := repo.List(ctx, Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 5 || len(page.Entries) != 1 {
		t.Errorf("total = %d, entries = %d, want 5, 1", page.Total, len(page.Entries))
	}

	clamped, err := repo.List(ctx, Filter{Limit: 1000, Offset: -3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if clamped.Limit != maxListLimit || clamped.Offset != 0 {
		t.Errorf("limit = %d offset = %d, want %d, 0", clamped.Limit, clamped.Offset, maxListLimit)
	}
}

func TestSQLiteRepository_CreateRequiresKind(t *testing.T) {
	repo := setupTestRepo(t)
	if err := repo.Create(context.Background(), &Entry{}); !errors.Is(err, ErrKindRequired) {
		t.Errorf("Create() error = %v, want ErrKindRequired", err)
	}
}

func TestRecorder_Dedupes(t *testing.T) {
	repo := setupTestRepo(t)
	logger := &mockLogger{}
	rec := NewRecorder(repo, logger)

	d := shade.Diagnostic{Kind: shade.DiagnosticTypeUnknown, ShadeID: "study", Type: 99, Capabilities: shade.NotReported}
	for i := 0; i < 3; i++ {
		rec.Report(d)
	}
	other := d
	other.ShadeID = "hall"
	rec.Report(other)

	if got := rec.Occurrences(d); got != 3 {
		t.Errorf("Occurrences() = %d, want 3", got)
	}
	if got := rec.Distinct(); got != 2 {
		t.Errorf("Distinct() = %d, want 2", got)
	}
	if got := logger.count("warn"); got != 2 {
		t.Errorf("warnings = %d, want 2", got)
	}

	list, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list.Total != 2 {
		t.Errorf("persisted = %d, want 2", list.Total)
	}
}

func TestRecorder_AsResolveSink(t *testing.T) {
	repo := setupTestRepo(t)
	rec := NewRecorder(repo, &mockLogger{})

	act := shade.ResolveActuator(shade.ActuatorConfig{ID: "porch", Type: 9999, Capabilities: shade.NotReported}, rec)
	if act.Type.IsKnown() {
		t.Fatal("type 9999 should resolve to the unknown type")
	}

	list, err := repo.List(context.Background(), Filter{ShadeID: "porch"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list.Total != 1 || list.Entries[0].Kind != shade.DiagnosticTypeUnknown {
		t.Errorf("got %+v, want one type_unknown entry", list.Entries)
	}
}

func TestRecorder_PersistFailureIsLogged(t *testing.T) {
	logger := &mockLogger{}
	rec := NewRecorder(failingRepo{}, logger)

	rec.Report(shade.Diagnostic{Kind: shade.DiagnosticCapabilityUnknown, Type: 6, Capabilities: 77})

	if logger.count("error") != 1 {
		t.Errorf("errors logged = %d, want 1", logger.count("error"))
	}
}

func TestRecorder_NilDependencies(t *testing.T) {
	rec := NewRecorder(nil, nil)
	rec.Report(shade.Diagnostic{Kind: shade.DiagnosticTypeUnknown, Type: 99})
	if rec.Distinct() != 1 {
		t.Errorf("Distinct() = %d, want 1", rec.Distinct())
	}
}
