package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_WritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "layr")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Editor.DefaultZoom != 0.85 || cfg.Generator.Timeout.Std() != 2*time.Minute {
		t.Errorf("defaults = %+v", cfg)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Errorf("config file not written: %v", err)
	}
	if cfg.SQLitePath() != filepath.Join(dir, "layr.db") {
		t.Errorf("sqlite path = %s", cfg.SQLitePath())
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	body := `{
		"storage": {"driver": "postgres", "dsn": "host=db"},
		"generator": {"kind": "service", "timeout": 45},
		"retention": {"schedule": "@weekly", "maxAge": "72h"}
	}`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN != "host=db" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Generator.Kind != "service" || cfg.Generator.Timeout.Std() != 45*time.Second {
		t.Errorf("generator = %+v", cfg.Generator)
	}
	if cfg.Generator.Model != "gemini-2.5-flash" {
		t.Errorf("unset fields should keep defaults, model = %q", cfg.Generator.Model)
	}
	if cfg.Retention.MaxAge.Std() != 72*time.Hour {
		t.Errorf("max age = %v", cfg.Retention.MaxAge.Std())
	}
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, FileName), []byte("{"), 0644)
	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LAYR_DB_DRIVER":     "mongodb",
		"LAYR_DB_DSN":        "mongodb://localhost/layr",
		"LAYR_GENERATOR":     "service",
		"LAYR_GENERATOR_URL": "http://gen:5000/api/generate-ui",
		"LAYR_MODEL":         "gemini-2.5-pro",
		"LAYR_STICKY_TOOLS":  "true",
	}
	cfg := Default(t.TempDir())
	cfg.applyEnv(func(k string) string { return env[k] })
	if cfg.Storage.Driver != "mongodb" || cfg.Storage.DSN != "mongodb://localhost/layr" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Generator.Kind != "service" || cfg.Generator.URL != env["LAYR_GENERATOR_URL"] || cfg.Generator.Model != "gemini-2.5-pro" {
		t.Errorf("generator = %+v", cfg.Generator)
	}
	if !cfg.Editor.StickyTools {
		t.Error("sticky tools not applied")
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(90 * time.Second)
	b, err := d.MarshalJSON()
	if err != nil || string(b) != `"1m30s"` {
		t.Fatalf("marshal = %s, %v", b, err)
	}
	var back Duration
	if err := back.UnmarshalJSON(b); err != nil || back != d {
		t.Errorf("unmarshal = %v, %v", back, err)
	}
	if err := back.UnmarshalJSON([]byte(`"soon"`)); err == nil {
		t.Error("expected error for bad duration")
	}
}
