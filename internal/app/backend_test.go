package app

import (
	"context"
	"testing"

	"layr/internal/config"
	"layr/internal/domain"
	"layr/internal/generate"
	"layr/internal/secret"
	"layr/internal/service"
	"layr/internal/storage"
)

func newTestBackend(t *testing.T) (*backend, *service.MockEmitter) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.Retention.Schedule = ""
	emitter := &service.MockEmitter{}
	b, err := openBackend(context.Background(), cfg, secret.NewMemoryStore(), emitter)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(b.Close)
	return b, emitter
}

func TestOpenBackend_DefaultSQLite(t *testing.T) {
	b, _ := newTestBackend(t)
	if b.db.Driver() != storage.DriverSQLite || b.mongo != nil {
		t.Fatalf("driver = %s, mongo = %v", b.db.Driver(), b.mongo)
	}
	p, err := b.projects.CreateProject("Checkout")
	if err != nil {
		t.Fatal(err)
	}
	sess, err := b.editor.Open(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	sess.AddFrame("", "Cart")
	if h, _ := b.history.Load(p.ID); len(h) != 1 {
		t.Errorf("history = %d entries, want 1", len(h))
	}
	if b.watcher == nil {
		t.Error("file watcher not started")
	}
}

func TestOpenBackend_UnknownDriver(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Storage.Driver = "oracle"
	if _, err := openBackend(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestNewGenerator(t *testing.T) {
	secrets := secret.NewMemoryStore()
	secrets.Set(secret.GeminiKey, []byte("k"))

	tests := []struct {
		kind    string
		want    string
		wantErr bool
	}{
		{"gemini", "gemini", false},
		{"", "gemini", false},
		{"service", "service", false},
		{"Service", "service", false},
		{"openai", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			c, err := newGenerator(config.GeneratorConfig{Kind: tt.kind, URL: "http://localhost:5000"}, secrets)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			var got string
			switch c.(type) {
			case *generate.GeminiClient:
				got = "gemini"
			case *generate.ServiceClient:
				got = "service"
			}
			if got != tt.want {
				t.Errorf("client = %T, want %s", c, tt.want)
			}
		})
	}
}

func TestProjectWatcher_ReloadsExternalWrites(t *testing.T) {
	b, emitter := newTestBackend(t)
	p, _ := b.projects.CreateProject("Shop")
	sess, _ := b.editor.Open(p.ID)
	w := newProjectWatcher(context.Background(), b.editor, b.approvals, emitter)

	w.check()
	if ev := emitter.Named(service.EventProjectReloaded); len(ev) != 0 {
		t.Fatalf("reload without external write: %v", ev)
	}

	ext := sess.Project()
	ext.UpdatedAt += 1000
	ext.Data.Screens = append(ext.Data.Screens, domain.ScreenFrame{ID: "agent", Name: "Home", Height: 812})
	if err := storage.NewProjectStore(b.db).UpdateProject(&ext); err != nil {
		t.Fatal(err)
	}
	w.check()
	if fs := sess.Frames(); len(fs) != 1 || fs[0].Name != "Home" {
		t.Errorf("frames = %+v", fs)
	}
	if ev := emitter.Named(service.EventProjectReloaded); len(ev) != 1 {
		t.Errorf("reload events = %v", ev)
	}
}

func TestProjectWatcher_AnnouncesApprovalsOnce(t *testing.T) {
	b, emitter := newTestBackend(t)
	w := newProjectWatcher(context.Background(), b.editor, b.approvals, emitter)

	if err := b.approvals.Create(&storage.Approval{ID: "a1", Tool: "delete_frame", Description: "Delete Home"}); err != nil {
		t.Fatal(err)
	}
	w.check()
	w.check()
	ev := emitter.Named(service.EventApproval)
	if len(ev) != 1 {
		t.Fatalf("approval events = %d, want 1", len(ev))
	}
	if a, ok := ev[0].(storage.Approval); !ok || a.ID != "a1" || a.Tool != "delete_frame" {
		t.Errorf("payload = %+v", ev[0])
	}

	b.approvals.Resolve("a1", true)
	w.check()
	if len(w.emitted) != 0 {
		t.Errorf("resolved approval still tracked: %v", w.emitted)
	}
}
