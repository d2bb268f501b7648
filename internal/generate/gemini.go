package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// GeminiClient calls the Gemini generateContent endpoint directly.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiClient(apiKey, model string, timeout time.Duration) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the client at another endpoint root.
func (c *GeminiClient) WithBaseURL(u string) *GeminiClient {
	c.baseURL = u
	return c
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *GeminiClient) Generate(ctx context.Context, req Request) ([]string, error) {
	if c.apiKey == "" {
		return nil, errors.New("API key not configured")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	text := SystemPrompt(req.ScreenCount, string(req.Platform)) + "\n\nUSER REQUEST: \"" + req.Prompt + "\""
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: text}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(raw))
		}
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return nil, fmt.Errorf("API error (%d): %s - %s", resp.StatusCode, out.Error.Status, out.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d)", resp.StatusCode)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 || out.Candidates[0].Content.Parts[0].Text == "" {
		return nil, errors.New("no content generated")
	}
	return ExtractHTML(out.Candidates[0].Content.Parts[0].Text), nil
}

// SystemPrompt instructs the model to emit one fenced html block per screen.
func SystemPrompt(screenCount int, platform string) string {
	return fmt.Sprintf(`
You are a specialized UI Generator.
TASK: Generate %[1]d screen(s) of high-quality, production-ready HTML/Tailwind CSS based on the user's prompt.

**RULES:**
1. **OUTPUT RAW HTML ONLY.** Do not wrap in JSON. Use Markdown code blocks ONLY for readability: `+"```html ... ```"+`.
2. **FORMAT:** Generate %[1]d DISTINCT screens. Wrap each screen's HTML code in a standard Markdown code block like this:

   `+"```html"+`
   <!-- Screen: [A Unique Name for Screen] -->
   <div class="w-full h-full min-h-screen bg-white [styles]">
      ... content ...
   </div>
   `+"```"+`

3. **IMAGES:** NEVER use empty img placeholders. For images, ONLY use: (a) Unsplash URLs like 'https://source.unsplash.com/random/800x600/?keyword', (b) CSS background gradients, or (c) text/emoji content inside divs. If using img tags, they MUST have valid src. Never create empty <img> tags.
4. **LAYOUT:** The root div MUST have 'w-full h-full min-h-screen' to fill the frame.
5. **CONTENT:** Make it look realistic. Fill text with relevant placeholders.
6. **NO JAVASCRIPT.** Pure HTML/CSS structure.

User Prompt Context: %[2]s Application.
FEATURES: Modern UI.
`, screenCount, platform)
}
