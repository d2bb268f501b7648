package storage_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"layr/internal/domain"
	"layr/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "layr.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─────────────────────────────────────────────────────────────
// ProjectStore
// ─────────────────────────────────────────────────────────────

func TestProjectStore_RoundTrip(t *testing.T) {
	s := storage.NewProjectStore(openTestDB(t))
	p := &domain.Project{
		ID:   "p1",
		Name: "Banking app",
		Data: domain.ProjectData{
			Screens: []domain.ScreenFrame{{ID: "f1", Name: "Login", Content: "<div>hi</div>", Height: 812, X: 10, Y: 20}},
			Annotations: domain.Annotations{
				Strokes: []domain.Stroke{{ID: "s1", Color: "#ef4444", StrokeWidth: 4, Points: []domain.Point{{X: 1, Y: 2}}}},
			},
		},
	}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.UpdatedAt == 0 {
		t.Error("create should stamp UpdatedAt")
	}

	got, err := s.GetProject("p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Banking app" || len(got.Data.Screens) != 1 || got.Data.Screens[0].Content != "<div>hi</div>" {
		t.Errorf("got %+v", got)
	}
	if len(got.Data.Annotations.Strokes) != 1 || got.Data.Annotations.Strokes[0].Points[0] != (domain.Point{X: 1, Y: 2}) {
		t.Errorf("annotations = %+v", got.Data.Annotations)
	}

	got.Name = "Renamed"
	got.Data.Screens = append(got.Data.Screens, domain.ScreenFrame{ID: "f2", Height: 812})
	got.UpdatedAt++
	if err := s.UpdateProject(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := s.ListProjects()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Renamed" || list[0].ScreenCount != 2 {
		t.Errorf("list = %+v", list)
	}

	if err := s.DeleteProject("p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetProject("p1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("get after delete: %v", err)
	}
}

func TestProjectStore_ListNewestFirst(t *testing.T) {
	s := storage.NewProjectStore(openTestDB(t))
	for i, ts := range []int64{100, 300, 200} {
		p := &domain.Project{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("P%d", i), UpdatedAt: ts}
		if err := s.CreateProject(p); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	if fmt.Sprint(ids) != "[p1 p2 p0]" {
		t.Errorf("order = %v", ids)
	}
}

func TestProjectStore_MissingRows(t *testing.T) {
	s := storage.NewProjectStore(openTestDB(t))
	if err := s.UpdateProject(&domain.Project{ID: "nope", UpdatedAt: 1}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("update missing: %v", err)
	}
	if err := s.DeleteProject("nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("delete missing: %v", err)
	}
}

func TestProjectStore_MalformedData(t *testing.T) {
	db := openTestDB(t)
	s := storage.NewProjectStore(db)
	if _, err := db.Conn().Exec(
		`INSERT INTO projects (id, name, screen_count, data, updated_at) VALUES ('bad', 'Broken', 0, '{"screens": [', 1)`,
	); err != nil {
		t.Fatal(err)
	}
	p, err := s.GetProject("bad")
	if !errors.Is(err, domain.ErrMalformedData) {
		t.Fatalf("err = %v", err)
	}
	if p == nil || p.Name != "Broken" || len(p.Data.Screens) != 0 {
		t.Errorf("project = %+v", p)
	}
}

// ─────────────────────────────────────────────────────────────
// HistoryStore
// ─────────────────────────────────────────────────────────────

func TestHistoryStore_AppendDropLoad(t *testing.T) {
	h := storage.NewHistoryStore(openTestDB(t), 3)
	j := h.Journal("p1")
	for i := 1; i <= 5; i++ {
		if err := j.Append([]byte(fmt.Sprintf("s%d", i))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if err := h.Append("p2", []byte("other")); err != nil {
		t.Fatal(err)
	}

	got, err := h.Load("p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || string(got[0]) != "s3" || string(got[2]) != "s5" {
		t.Errorf("after prune = %q", got)
	}

	if err := j.DropLast(); err != nil {
		t.Fatal(err)
	}
	if err := j.Append([]byte("s6")); err != nil {
		t.Fatal(err)
	}
	got, _ = h.Load("p1")
	if len(got) != 3 || string(got[1]) != "s4" || string(got[2]) != "s6" {
		t.Errorf("after drop+append = %q", got)
	}

	if other, _ := h.Load("p2"); len(other) != 1 {
		t.Errorf("p2 history = %q", other)
	}
}

func TestHistoryStore_DropLastEmpty(t *testing.T) {
	h := storage.NewHistoryStore(openTestDB(t), 0)
	if err := h.DropLast("none"); err != nil {
		t.Errorf("DropLast on empty: %v", err)
	}
}

func TestHistoryStore_PruneOlderThan(t *testing.T) {
	h := storage.NewHistoryStore(openTestDB(t), 0)
	h.Append("p1", []byte("a"))
	h.Append("p1", []byte("b"))
	n, err := h.PruneOlderThan(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("pruned %d, want 2", n)
	}
	if n, _ := h.PruneOlderThan(time.Now().Add(-time.Hour)); n != 0 {
		t.Errorf("pruned %d recent entries", n)
	}
}

func TestDeleteProjectClearsHistory(t *testing.T) {
	db := openTestDB(t)
	ps := storage.NewProjectStore(db)
	h := storage.NewHistoryStore(db, 0)
	ps.CreateProject(&domain.Project{ID: "p1", Name: "x"})
	h.Append("p1", []byte("a"))
	if err := ps.DeleteProject("p1"); err != nil {
		t.Fatal(err)
	}
	if got, _ := h.Load("p1"); len(got) != 0 {
		t.Errorf("history left behind: %q", got)
	}
}

// ─────────────────────────────────────────────────────────────
// SettingsStore and dialect helpers
// ─────────────────────────────────────────────────────────────

func TestSettingsStore_Upsert(t *testing.T) {
	s := storage.NewSettingsStore(openTestDB(t))
	if _, ok, err := s.Get("color"); ok || err != nil {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	s.Set("color", "#ef4444")
	s.Set("color", "#3b82f6")
	s.Set("platform", "desktop")
	v, ok, err := s.Get("color")
	if err != nil || !ok || v != "#3b82f6" {
		t.Errorf("color = %q, %v, %v", v, ok, err)
	}
	all, err := s.All()
	if err != nil || len(all) != 2 || all["platform"] != "desktop" {
		t.Errorf("all = %v, %v", all, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "layr.db")
	db, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	storage.NewSettingsStore(db).Set("k", "v")
	db.Close()

	db, err = storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if v, _, _ := storage.NewSettingsStore(db).Get("k"); v != "v" {
		t.Errorf("value after reopen = %q", v)
	}
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in   string
		want storage.Driver
		ok   bool
	}{
		{"", storage.DriverSQLite, true},
		{"SQLite3", storage.DriverSQLite, true},
		{"postgresql", storage.DriverPostgres, true},
		{"mariadb", storage.DriverMySQL, true},
		{"oracle", "", false},
	}
	for _, tt := range tests {
		got, err := storage.ParseDriver(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseDriver(%q) = %q, %v", tt.in, got, err)
		}
	}
}

// ─────────────────────────────────────────────────────────────
// ApprovalStore
// ─────────────────────────────────────────────────────────────

func TestApprovalStore_Lifecycle(t *testing.T) {
	s := storage.NewApprovalStore(openTestDB(t))
	a := &storage.Approval{ID: "a1", Tool: "delete_frame", Description: "Delete frame Login"}
	if err := s.Create(a); err != nil {
		t.Fatal(err)
	}
	if a.Metadata != "{}" || a.Status != storage.ApprovalPending || a.CreatedAt == 0 {
		t.Errorf("defaults not applied: %+v", a)
	}

	pending, err := s.Pending()
	if err != nil || len(pending) != 1 || pending[0].Tool != "delete_frame" {
		t.Fatalf("pending = %+v, %v", pending, err)
	}

	if err := s.Resolve("a1", true); err != nil {
		t.Fatal(err)
	}
	if st, _ := s.Status("a1"); st != storage.ApprovalApproved {
		t.Errorf("status = %s", st)
	}
	if err := s.Resolve("a1", false); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("resolving twice = %v", err)
	}
	if pending, _ := s.Pending(); len(pending) != 0 {
		t.Errorf("resolved approval still pending: %+v", pending)
	}

	s.Delete("a1")
	if _, err := s.Status("a1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("status after delete = %v", err)
	}
}
