// Package generate turns a prompt into HTML screen fragments through an
// external generative model.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"layr/internal/domain"
)

const (
	MinScreens = 1
	MaxScreens = 5
)

var (
	ErrEmptyPrompt = errors.New("prompt is required")
	ErrScreenCount = fmt.Errorf("screen count must be between %d and %d", MinScreens, MaxScreens)
	ErrPlatform    = errors.New("unknown platform")
)

// Request asks for ScreenCount screens for one platform.
type Request struct {
	Prompt      string          `json:"prompt"`
	ScreenCount int             `json:"screenCount"`
	Platform    domain.Platform `json:"platform"`
}

// Validate checks the request before any frames are inserted.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if r.ScreenCount < MinScreens || r.ScreenCount > MaxScreens {
		return ErrScreenCount
	}
	if _, err := domain.ParsePlatform(string(r.Platform)); err != nil {
		return fmt.Errorf("%w: %q", ErrPlatform, r.Platform)
	}
	return nil
}

// Client returns HTML fragments in order, one per screen. It may return fewer
// than requested.
type Client interface {
	Generate(ctx context.Context, req Request) ([]string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) ([]string, error)

func (f ClientFunc) Generate(ctx context.Context, req Request) ([]string, error) {
	return f(ctx, req)
}
