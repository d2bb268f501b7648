package generate

import (
	"regexp"
	"strings"
)

var (
	htmlBlockRe  = regexp.MustCompile("(?s)```html\\n(.*?)```")
	screenNameRe = regexp.MustCompile(`<!--\s*Screen:\s*(.*?)\s*-->`)
)

// ExtractHTML pulls the ```html fenced blocks out of a model reply. With no
// fenced blocks it falls back to the span from the first "<div" to the last
// "</div>".
func ExtractHTML(text string) []string {
	var out []string
	for _, m := range htmlBlockRe.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	if len(out) > 0 {
		return out
	}
	first := strings.Index(text, "<div")
	last := strings.LastIndex(text, "</div>")
	if first != -1 && last != -1 && last > first {
		out = append(out, strings.TrimSpace(text[first:last+len("</div>")]))
	}
	return out
}

// ScreenName returns the name from a leading <!-- Screen: Name --> comment,
// or fallback.
func ScreenName(html, fallback string) string {
	if m := screenNameRe.FindStringSubmatch(html); m != nil && m[1] != "" {
		return m[1]
	}
	return fallback
}
