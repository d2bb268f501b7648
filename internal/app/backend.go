package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"layr/internal/canvas"
	"layr/internal/config"
	"layr/internal/docstore"
	"layr/internal/domain"
	"layr/internal/generate"
	"layr/internal/secret"
	"layr/internal/service"
	"layr/internal/storage"
	"layr/internal/watch"
)

// backend is everything the desktop app and the standalone MCP server share:
// stores, services, the file watcher and the retention job.
type backend struct {
	cfg     *config.Config
	secrets secret.SecretStore

	db        *storage.DB
	mongo     *docstore.MongoStore
	approvals *storage.ApprovalStore
	history   *storage.HistoryStore

	projects  *service.ProjectService
	settings  *service.SettingsService
	editor    *service.EditorService
	retention *service.RetentionService
	watcher   *watch.Watcher
}

// openBackend wires storage and services from cfg. Callers must Close it.
func openBackend(ctx context.Context, cfg *config.Config, secrets secret.SecretStore, emitter service.EventEmitter) (*backend, error) {
	b := &backend{cfg: cfg, secrets: secrets}
	canvas.SetLogger(slog.Default())

	store, err := b.openStores(ctx)
	if err != nil {
		b.Close()
		return nil, err
	}

	b.history = storage.NewHistoryStore(b.db, cfg.Editor.HistoryLimit)
	b.approvals = storage.NewApprovalStore(b.db)
	b.projects = service.NewProjectService(store, b.history, emitter)
	b.settings = service.NewSettingsService(storage.NewSettingsStore(b.db))

	client, err := newGenerator(cfg.Generator, secrets)
	if err != nil {
		log.Printf("[GEN] %v; generation disabled", err)
	}
	b.editor = service.NewEditorService(ctx, b.projects, b.settings, client, emitter, service.EditorOptions{
		Zoom:         cfg.Editor.DefaultZoom,
		StickyTools:  cfg.Editor.StickyTools,
		HistoryLimit: cfg.Editor.HistoryLimit,
	})

	if cfg.Editor.WatchFiles {
		w, err := watch.New(b.editor.FileChanged)
		if err != nil {
			log.Printf("[WATCH] file links will not reload: %v", err)
		} else {
			b.watcher = w
			b.editor.SetWatcher(w)
		}
	}

	b.retention = service.NewRetentionService(b.history, cfg.Retention.MaxAge.Std(), emitter)
	if err := b.retention.Start(ctx, cfg.Retention.Schedule); err != nil {
		log.Printf("[RETENTION] %v", err)
	}
	return b, nil
}

// openStores opens the SQL database and returns the project store. With the
// mongodb driver projects live in Mongo and the SQL database (a local SQLite
// file unless HistoryDSN names another) keeps history, settings and approvals.
func (b *backend) openStores(ctx context.Context) (domain.ProjectStore, error) {
	sc := b.cfg.Storage
	if isMongo(sc.Driver) {
		m, err := docstore.Open(ctx, sc.DSN)
		if err != nil {
			return nil, err
		}
		b.mongo = m
		path := sc.HistoryDSN
		if path == "" {
			path = b.cfg.SQLitePath()
		}
		if b.db, err = storage.OpenSQLite(path); err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		return m, nil
	}

	driver, err := storage.ParseDriver(sc.Driver)
	if err != nil {
		return nil, err
	}
	switch {
	case driver == storage.DriverSQLite && sc.DSN == "":
		b.db, err = storage.OpenSQLite(b.cfg.SQLitePath())
	case driver == storage.DriverSQLite:
		b.db, err = storage.OpenSQLite(sc.DSN)
	default:
		b.db, err = storage.Open(driver, sc.DSN)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Printf("[STORE] Projects on %s", driver)
	return storage.NewProjectStore(b.db), nil
}

func isMongo(driver string) bool {
	switch strings.ToLower(driver) {
	case "mongodb", "mongo":
		return true
	}
	return false
}

// newGenerator builds the configured generation client. The Gemini key comes
// from the config, the keychain, then GEMINI_API_KEY.
func newGenerator(gc config.GeneratorConfig, secrets secret.SecretStore) (generate.Client, error) {
	switch strings.ToLower(gc.Kind) {
	case "service":
		return generate.NewServiceClient(gc.URL, gc.Timeout.Std()), nil
	case "gemini", "":
		key := gc.APIKey
		if key == "" {
			key = secret.Resolve(secrets, secret.GeminiKey, "GEMINI_API_KEY")
		}
		if key == "" {
			log.Println("[GEN] No Gemini API key configured")
		}
		return generate.NewGeminiClient(key, gc.Model, gc.Timeout.Std()), nil
	}
	return nil, fmt.Errorf("unknown generator %q", gc.Kind)
}

// Close waits briefly for in-flight generations, then releases everything.
func (b *backend) Close() {
	if b.retention != nil {
		b.retention.Stop()
	}
	if b.editor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		b.editor.Wait(ctx)
		cancel()
	}
	if b.watcher != nil {
		b.watcher.Close()
	}
	if b.mongo != nil {
		b.mongo.Close()
	}
	if b.db != nil {
		b.db.Close()
	}
}
