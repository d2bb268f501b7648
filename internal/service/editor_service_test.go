package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"layr/internal/canvas"
	"layr/internal/domain"
	"layr/internal/generate"
	"layr/internal/service"
	"layr/internal/storage"
)

type fixture struct {
	db       *storage.DB
	projects *service.ProjectService
	settings *service.SettingsService
	history  *storage.HistoryStore
	emitter  *service.MockEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "layr.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	f := &fixture{db: db, emitter: &service.MockEmitter{}}
	f.history = storage.NewHistoryStore(db, 0)
	f.projects = service.NewProjectService(storage.NewProjectStore(db), f.history, f.emitter)
	f.settings = service.NewSettingsService(storage.NewSettingsStore(db))
	return f
}

func (f *fixture) editor(client generate.Client) *service.EditorService {
	return service.NewEditorService(context.Background(), f.projects, f.settings, client, f.emitter, service.EditorOptions{Zoom: 1})
}

func waitGeneration(t *testing.T, g *canvas.Generation) {
	t.Helper()
	select {
	case <-g.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("generation did not finish")
	}
}

// ─────────────────────────────────────────────────────────────
// ProjectService
// ─────────────────────────────────────────────────────────────

func TestProjectService_CreateDefaultsName(t *testing.T) {
	f := newFixture(t)
	p, err := f.projects.CreateProject("  ")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != service.DefaultProjectName || p.ID == "" || p.UpdatedAt == 0 {
		t.Errorf("project = %+v", p)
	}
	list, err := f.projects.ListProjects()
	if err != nil || len(list) != 1 || list[0].ID != p.ID {
		t.Errorf("list = %+v, %v", list, err)
	}
}

func TestProjectService_ListEmptyIsNotNil(t *testing.T) {
	f := newFixture(t)
	list, err := f.projects.ListProjects()
	if err != nil || list == nil {
		t.Errorf("list = %v, %v", list, err)
	}
}

func TestProjectService_MalformedOpensEmpty(t *testing.T) {
	f := newFixture(t)
	if _, err := f.db.Conn().Exec(
		`INSERT INTO projects (id, name, screen_count, data, updated_at) VALUES ('bad', 'Broken', 2, 'not json', 5)`,
	); err != nil {
		t.Fatal(err)
	}
	p, err := f.projects.OpenProject("bad")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if p.Name != "Broken" || len(p.Data.Screens) != 0 {
		t.Errorf("project = %+v", p)
	}
}

func TestProjectService_OpenMissing(t *testing.T) {
	f := newFixture(t)
	if _, err := f.projects.OpenProject("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestProjectService_RenameAndDelete(t *testing.T) {
	f := newFixture(t)
	p, _ := f.projects.CreateProject("First")
	if err := f.projects.RenameProject(p.ID, "Second"); err != nil {
		t.Fatal(err)
	}
	got, _ := f.projects.OpenProject(p.ID)
	if got.Name != "Second" {
		t.Errorf("name = %q", got.Name)
	}
	f.history.Append(p.ID, []byte("{}"))
	if err := f.projects.DeleteProject(p.ID); err != nil {
		t.Fatal(err)
	}
	if h, _ := f.history.Load(p.ID); len(h) != 0 {
		t.Errorf("history not cleared: %d", len(h))
	}
}

// ─────────────────────────────────────────────────────────────
// EditorService
// ─────────────────────────────────────────────────────────────

func TestEditorService_MutationSavesAndEmits(t *testing.T) {
	f := newFixture(t)
	p, _ := f.projects.CreateProject("Shop")
	ed := f.editor(nil)
	sess, err := ed.Open(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again, _ := ed.Open(p.ID); again != sess {
		t.Error("Open should reuse the live session")
	}

	sess.AddFrame("<div>cart</div>", "Cart")

	stored, _ := f.projects.OpenProject(p.ID)
	if len(stored.Data.Screens) != 1 || stored.Data.Screens[0].Name != "Cart" {
		t.Errorf("stored = %+v", stored.Data.Screens)
	}
	saved := f.emitter.Named(service.EventProjectSaved)
	if len(saved) != 1 || saved[0].(domain.ProjectSummary).ScreenCount != 1 {
		t.Errorf("saved events = %+v", saved)
	}
}

func TestEditorService_RefreshPicksUpExternalWrites(t *testing.T) {
	f := newFixture(t)
	p, _ := f.projects.CreateProject("Shop")
	ed := f.editor(nil)
	sess, _ := ed.Open(p.ID)
	sess.AddFrame("", "Home")

	if changed, err := ed.Refresh(p.ID); err != nil || changed {
		t.Fatalf("refresh without external write = %v, %v", changed, err)
	}

	ext := sess.Project()
	ext.UpdatedAt += 1000
	ext.Data.Screens = append(ext.Data.Screens, domain.ScreenFrame{ID: "agent", Name: "Checkout", Height: 812})
	if err := storage.NewProjectStore(f.db).UpdateProject(&ext); err != nil {
		t.Fatal(err)
	}

	changed, err := ed.Refresh(p.ID)
	if err != nil || !changed {
		t.Fatalf("refresh = %v, %v", changed, err)
	}
	if fs := sess.Frames(); len(fs) != 2 || fs[1].Name != "Checkout" {
		t.Errorf("frames = %+v", fs)
	}
	if ev := f.emitter.Named(service.EventProjectReloaded); len(ev) != 1 {
		t.Errorf("reload events = %v", ev)
	}
	if _, err := ed.Refresh("missing"); !errors.Is(err, service.ErrNotOpen) {
		t.Errorf("refresh of closed project = %v", err)
	}
}

func TestEditorService_UndoSurvivesReopen(t *testing.T) {
	f := newFixture(t)
	p, _ := f.projects.CreateProject("Shop")
	ed := f.editor(nil)
	sess, _ := ed.Open(p.ID)
	sess.AddFrame("", "A")
	sess.MoveFrame(0, domain.Point{X: 300, Y: 40})
	ed.Close(p.ID)

	sess, err := f.editor(nil).Open(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.HistoryLen() != 2 {
		t.Fatalf("history = %d, want 2", sess.HistoryLen())
	}
	if !sess.Undo() {
		t.Fatal("undo failed")
	}
	if fr := sess.Frames(); len(fr) != 1 || fr[0].X != 0 || fr[0].Y != 0 {
		t.Errorf("after undo = %+v", fr)
	}
	if h, _ := f.history.Load(p.ID); len(h) != 1 {
		t.Errorf("journal = %d entries, want 1", len(h))
	}
}

func TestEditorService_SessionNotOpen(t *testing.T) {
	f := newFixture(t)
	if _, err := f.editor(nil).Session("x"); !errors.Is(err, service.ErrNotOpen) {
		t.Errorf("err = %v", err)
	}
}

func TestEditorService_GenerateEmitsProgress(t *testing.T) {
	f := newFixture(t)
	p, _ := f.projects.CreateProject("Gen")
	client := generate.ClientFunc(func(ctx context.Context, req generate.Request) ([]string, error) {
		return []string{"<div>1</div>", "<div>2</div>"}, nil
	})
	ed := f.editor(client)
	sess, _ := ed.Open(p.ID)

	g, err := ed.Generate(context.Background(), p.ID, generate.Request{Prompt: "bank", ScreenCount: 2, Platform: domain.PlatformMobile})
	if err != nil {
		t.Fatal(err)
	}
	waitGeneration(t, g)

	var pcts []int
	for _, e := range f.emitter.Named(service.EventProgress) {
		pcts = append(pcts, e.(service.ProjectEvent).Value.(int))
	}
	if len(pcts) != 3 || pcts[0] != 10 || pcts[1] != 70 || pcts[2] != 100 {
		t.Errorf("progress = %v", pcts)
	}
	if fr := sess.Frames(); len(fr) != 2 || fr[1].Content != "<div>2</div>" {
		t.Errorf("frames = %+v", fr)
	}
	stored, _ := f.projects.OpenProject(p.ID)
	if len(stored.Data.Screens) != 2 || stored.Data.Screens[0].Content != "<div>1</div>" {
		t.Errorf("stored = %+v", stored.Data.Screens)
	}
}

func TestEditorService_GeneratePendingAndFailure(t *testing.T) {
	f := newFixture(t)
	p, _ := f.projects.CreateProject("Gen")
	release := make(chan struct{})
	client := generate.ClientFunc(func(ctx context.Context, req generate.Request) ([]string, error) {
		<-release
		return nil, errors.New("quota exceeded")
	})
	ed := f.editor(client)
	ed.Open(p.ID)
	req := generate.Request{Prompt: "x", ScreenCount: 1, Platform: domain.PlatformDesktop}

	g, err := ed.Generate(context.Background(), p.ID, req)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ed.Generate(context.Background(), p.ID, req); !errors.Is(err, canvas.ErrGenerationPending) {
		t.Errorf("second generate: %v", err)
	}
	close(release)
	waitGeneration(t, g)

	alerts := f.emitter.Named(service.EventAlert)
	if len(alerts) != 1 || alerts[0].(service.ProjectEvent).Value != "Generation failed: quota exceeded" {
		t.Errorf("alerts = %+v", alerts)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ed.Wait(ctx)
	if ctx.Err() != nil {
		t.Error("Wait did not return after the generation finished")
	}
}

func TestEditorService_GenerateWithoutClient(t *testing.T) {
	f := newFixture(t)
	p, _ := f.projects.CreateProject("Gen")
	ed := f.editor(nil)
	ed.Open(p.ID)
	if _, err := ed.Generate(context.Background(), p.ID, generate.Request{Prompt: "x", ScreenCount: 1, Platform: domain.PlatformMobile}); err == nil {
		t.Error("expected an error without a generator")
	}
}

func TestEditorService_CaptureEvents(t *testing.T) {
	f := newFixture(t)
	p, _ := f.projects.CreateProject("Pan")
	sess, _ := f.editor(nil).Open(p.ID)
	sess.PointerDown(canvas.PointerEvent{X: 10, Y: 10, Button: canvas.ButtonMiddle})
	sess.PointerMove(canvas.PointerEvent{X: 5, Y: 5})
	sess.PointerUp(canvas.PointerEvent{X: 5, Y: 5})

	if n := len(f.emitter.Named(service.EventCapture)); n != 1 {
		t.Errorf("capture events = %d", n)
	}
	if n := len(f.emitter.Named(service.EventRelease)); n != 1 {
		t.Errorf("release events = %d", n)
	}
	scrolls := f.emitter.Named(service.EventScroll)
	if len(scrolls) == 0 {
		t.Fatal("pan emitted no scroll")
	}
	if sc := scrolls[len(scrolls)-1].(service.ScrollEvent); sc.Left != 5 || sc.Top != 5 {
		t.Errorf("scroll = %+v", sc)
	}
}

// ─────────────────────────────────────────────────────────────
// SettingsService
// ─────────────────────────────────────────────────────────────

func TestSettingsService_Defaults(t *testing.T) {
	s := service.NewSettingsService(nil)
	if ws := s.LoadWindowSize(); ws.Width != 1280 || ws.Height != 800 {
		t.Errorf("window = %+v", ws)
	}
	e := s.LoadEditorSettings()
	if e.Platform != domain.PlatformMobile || e.StrokeWidth != 4 || e.Color == "" {
		t.Errorf("editor = %+v", e)
	}
}

func TestSettingsService_RoundTrip(t *testing.T) {
	f := newFixture(t)
	if err := f.settings.SaveWindowSize(500, 1000); err != nil {
		t.Fatal(err)
	}
	if ws := f.settings.LoadWindowSize(); ws.Width != 1280 || ws.Height != 1000 {
		t.Errorf("window = %+v, too-small width should reset", ws)
	}
	want := service.EditorSettings{Color: "#22c55e", StrokeWidth: 2.5, Platform: domain.PlatformDesktop, StickyTools: true}
	if err := f.settings.SaveEditorSettings(want); err != nil {
		t.Fatal(err)
	}
	if got := f.settings.LoadEditorSettings(); got != want {
		t.Errorf("editor = %+v, want %+v", got, want)
	}
}

func TestEditorService_OpenAppliesSettings(t *testing.T) {
	f := newFixture(t)
	f.settings.SaveEditorSettings(service.EditorSettings{Color: "#22c55e", StrokeWidth: 6, Platform: domain.PlatformDesktop})
	p, _ := f.projects.CreateProject("S")
	sess, _ := f.editor(nil).Open(p.ID)
	st := sess.State()
	if st.Color != "#22c55e" || st.StrokeWidth != 6 || st.Platform != domain.PlatformDesktop {
		t.Errorf("state = color %s width %v platform %s", st.Color, st.StrokeWidth, st.Platform)
	}
}

// ─────────────────────────────────────────────────────────────
// File-linked frames
// ─────────────────────────────────────────────────────────────

type fakeWatcher struct {
	watched map[string]int
}

func (w *fakeWatcher) Watch(path string) error { w.watched[path]++; return nil }
func (w *fakeWatcher) Unwatch(path string)     { w.watched[path]-- }

func TestEditorService_LinkFrame(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.html")
	b := filepath.Join(dir, "b.html")
	os.WriteFile(a, []byte("<div>a</div>"), 0644)
	os.WriteFile(b, []byte("<div>b</div>"), 0644)

	p, _ := f.projects.CreateProject("Linked")
	ed := f.editor(nil)
	w := &fakeWatcher{watched: map[string]int{}}
	ed.SetWatcher(w)
	sess, _ := ed.Open(p.ID)
	sess.AddFrame("", "Home")

	if err := ed.LinkFrame(p.ID, 0, a); err != nil {
		t.Fatal(err)
	}
	if fr := sess.Frames()[0]; fr.Content != "<div>a</div>" || fr.FilePath != a {
		t.Errorf("frame = %+v", fr)
	}
	if err := ed.LinkFrame(p.ID, 0, b); err != nil {
		t.Fatal(err)
	}
	if w.watched[a] != 0 || w.watched[b] != 1 {
		t.Errorf("watch counts = %v", w.watched)
	}

	ed.FileChanged(b, "<div>b2</div>")
	if fr := sess.Frames()[0]; fr.Content != "<div>b2</div>" {
		t.Errorf("content after change = %q", fr.Content)
	}
	if ev := f.emitter.Named(service.EventFrameReloaded); len(ev) != 1 {
		t.Errorf("reload events = %v", ev)
	}
	ed.FileChanged(a, "<div>stale</div>")
	if fr := sess.Frames()[0]; fr.Content != "<div>b2</div>" {
		t.Error("unlinked path changed the frame")
	}

	ed.Close(p.ID)
	if w.watched[b] != 0 {
		t.Errorf("close left %s watched", b)
	}
}

func TestEditorService_LinkMissingFile(t *testing.T) {
	f := newFixture(t)
	p, _ := f.projects.CreateProject("Linked")
	ed := f.editor(nil)
	sess, _ := ed.Open(p.ID)
	sess.AddFrame("", "Home")
	if err := ed.LinkFrame(p.ID, 0, filepath.Join(t.TempDir(), "nope.html")); err == nil {
		t.Error("expected error for a missing file")
	}
}
