package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"layr/internal/domain"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"ok", Request{Prompt: "login", ScreenCount: 3, Platform: domain.PlatformMobile}, nil},
		{"empty prompt", Request{Prompt: "  ", ScreenCount: 1, Platform: domain.PlatformMobile}, ErrEmptyPrompt},
		{"zero screens", Request{Prompt: "x", ScreenCount: 0, Platform: domain.PlatformMobile}, ErrScreenCount},
		{"six screens", Request{Prompt: "x", ScreenCount: 6, Platform: domain.PlatformDesktop}, ErrScreenCount},
		{"bad platform", Request{Prompt: "x", ScreenCount: 1, Platform: "watch"}, ErrPlatform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExtractHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			"fenced blocks",
			"Here you go\n```html\n<div>a</div>\n```\ntext\n```html\n<div>b</div>\n```",
			[]string{"<div>a</div>", "<div>b</div>"},
		},
		{
			"raw fallback",
			"Sure! <div class=\"x\"><div>in</div></div> hope that helps",
			[]string{`<div class="x"><div>in</div></div>`},
		},
		{"nothing", "no markup here", nil},
		{"close before open", "</div> then <div", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractHTML(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d blocks %q, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("block %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScreenName(t *testing.T) {
	if got := ScreenName("<!-- Screen: Checkout -->\n<div></div>", "Screen 1"); got != "Checkout" {
		t.Errorf("ScreenName = %q", got)
	}
	if got := ScreenName("<div></div>", "Screen 2"); got != "Screen 2" {
		t.Errorf("fallback = %q", got)
	}
}

func validRequest() Request {
	return Request{Prompt: "a fitness app", ScreenCount: 2, Platform: domain.PlatformMobile}
}

func TestServiceClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.ScreenCount != 2 || req.Platform != domain.PlatformMobile {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{"screens": []string{"<div>1</div>", "<div>2</div>"}})
	}))
	defer srv.Close()

	c := NewServiceClient(srv.URL, time.Second).WithBackoff(time.Millisecond)
	screens, err := c.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(screens) != 2 || calls.Load() != 3 {
		t.Errorf("screens=%d calls=%d", len(screens), calls.Load())
	}
}

func TestServiceClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Prompt is required"}`))
	}))
	defer srv.Close()

	c := NewServiceClient(srv.URL, time.Second).WithBackoff(time.Millisecond)
	_, err := c.Generate(context.Background(), validRequest())
	if err == nil || !strings.Contains(err.Error(), "Prompt is required") {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestServiceClient_ErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"No content generated"}`))
	}))
	defer srv.Close()

	_, err := NewServiceClient(srv.URL, time.Second).Generate(context.Background(), validRequest())
	if err == nil || err.Error() != "No content generated" {
		t.Fatalf("err = %v", err)
	}
}

func TestServiceClient_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewServiceClient(srv.URL, time.Second).Generate(ctx, validRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestGeminiClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !strings.Contains(req.Contents[0].Parts[0].Text, `USER REQUEST: "a fitness app"`) {
			t.Errorf("prompt not forwarded")
		}
		reply := "```html\n<!-- Screen: Home -->\n<div>home</div>\n```\n```html\n<div>stats</div>\n```"
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": reply}}}}},
		})
	}))
	defer srv.Close()

	c := NewGeminiClient("k", "", time.Second).WithBaseURL(srv.URL)
	screens, err := c.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(screens) != 2 || screens[1] != "<div>stats</div>" {
		t.Errorf("screens = %q", screens)
	}
}

func TestGeminiClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	_, err := NewGeminiClient("k", "", time.Second).WithBaseURL(srv.URL).Generate(context.Background(), validRequest())
	if err == nil || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("err = %v", err)
	}
}

func TestGeminiClient_MissingKey(t *testing.T) {
	if _, err := NewGeminiClient("", "", 0).Generate(context.Background(), validRequest()); err == nil {
		t.Fatal("expected error without API key")
	}
}
