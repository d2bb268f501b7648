package service

import (
	"fmt"
	"log"
	"strconv"

	"layr/internal/domain"
	"layr/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Editor Settings Persistence
// ─────────────────────────────────────────────────────────────
//
// Window size and the last-used drawing settings, restored between sessions
// from the app_settings key/value table.

type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// EditorSettings are the preferences a new session starts with.
type EditorSettings struct {
	Color       string          `json:"color"`
	StrokeWidth float64         `json:"strokeWidth"`
	Platform    domain.Platform `json:"platform"`
	StickyTools bool            `json:"stickyTools"`
}

// SettingsService persists window size and editor settings.
type SettingsService struct {
	store *storage.SettingsStore
}

func NewSettingsService(store *storage.SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	settingColor        = "editor_color"
	settingStrokeWidth  = "editor_stroke_width"
	settingPlatform     = "editor_platform"
	settingStickyTools  = "editor_sticky_tools"

	defaultWindowWidth  = 1280
	defaultWindowHeight = 800
	defaultColor        = "#ef4444"
	defaultStrokeWidth  = 4
)

// LoadWindowSize returns the saved window dimensions, or defaults.
func (s *SettingsService) LoadWindowSize() WindowSize {
	w := s.intSetting(settingWindowWidth, defaultWindowWidth)
	h := s.intSetting(settingWindowHeight, defaultWindowHeight)
	if w < 800 {
		w = defaultWindowWidth
	}
	if h < 600 {
		h = defaultWindowHeight
	}
	return WindowSize{Width: w, Height: h}
}

func (s *SettingsService) SaveWindowSize(width, height int) error {
	if s.store == nil {
		return fmt.Errorf("window settings: no db")
	}
	if err := s.store.Set(settingWindowWidth, strconv.Itoa(width)); err != nil {
		return err
	}
	return s.store.Set(settingWindowHeight, strconv.Itoa(height))
}

// LoadEditorSettings returns stored preferences, falling back per field.
func (s *SettingsService) LoadEditorSettings() EditorSettings {
	out := EditorSettings{
		Color:       defaultColor,
		StrokeWidth: defaultStrokeWidth,
		Platform:    domain.PlatformMobile,
	}
	if v, ok := s.get(settingColor); ok && v != "" {
		out.Color = v
	}
	if v, ok := s.get(settingStrokeWidth); ok {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w > 0 {
			out.StrokeWidth = w
		}
	}
	if v, ok := s.get(settingPlatform); ok {
		if p, err := domain.ParsePlatform(v); err == nil {
			out.Platform = p
		}
	}
	if v, ok := s.get(settingStickyTools); ok {
		out.StickyTools, _ = strconv.ParseBool(v)
	}
	return out
}

func (s *SettingsService) SaveEditorSettings(e EditorSettings) error {
	if s.store == nil {
		return fmt.Errorf("editor settings: no db")
	}
	values := map[string]string{
		settingColor:       e.Color,
		settingStrokeWidth: strconv.FormatFloat(e.StrokeWidth, 'f', -1, 64),
		settingPlatform:    string(e.Platform),
		settingStickyTools: strconv.FormatBool(e.StickyTools),
	}
	for k, v := range values {
		if err := s.store.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsService) get(key string) (string, bool) {
	if s.store == nil {
		return "", false
	}
	v, ok, err := s.store.Get(key)
	if err != nil {
		log.Printf("[STORE] %v", err)
		return "", false
	}
	return v, ok
}

func (s *SettingsService) intSetting(key string, def int) int {
	v, ok := s.get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
