// Package export renders frames for use outside the editor: standalone HTML
// pages, a combined page for all frames, and a PNG overview of the canvas.
package export

import (
	"fmt"
	"html"
	"strings"

	"layr/internal/domain"
)

// Target identifies one frame for an external capture utility.
type Target struct {
	Index  int         `json:"index"`
	DOMID  string      `json:"domId"`
	Name   string      `json:"name"`
	Bounds domain.Rect `json:"bounds"`
}

// DOMID is the element id the editor gives frame i.
func DOMID(i int) string { return fmt.Sprintf("screen-%d", i) }

// Targets lists every frame's DOM id and logical bounding box.
func Targets(frames []domain.ScreenFrame) []Target {
	out := make([]Target, len(frames))
	for i, f := range frames {
		out[i] = Target{Index: i, DOMID: DOMID(i), Name: f.Name, Bounds: f.Bounds()}
	}
	return out
}

const emptyFrameHTML = `<div class="flex items-center justify-center h-screen text-white/50 font-sans">Waiting for design...</div>`

// FrameHTML wraps one frame's markup in a standalone page that loads Tailwind.
func FrameHTML(f domain.ScreenFrame) string {
	body := f.Content
	if strings.TrimSpace(body) == "" {
		body = emptyFrameHTML
	}
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>`)
	b.WriteString(html.EscapeString(f.Name))
	b.WriteString(`</title>
<script src="https://cdn.tailwindcss.com"></script>
<style>
body { margin: 0; padding: 0; background-color: #1e1e1e; color: white; overflow-x: hidden; width: 100%; height: 100%; }
::-webkit-scrollbar { width: 0px; background: transparent; }
</style>
</head>
<body>
`)
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

// AllHTML builds one page showing every frame in an iframe sized to it.
func AllHTML(frames []domain.ScreenFrame) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"><title>All Screens</title>`)
	b.WriteString(`<style>body{margin:0;padding:20px;background:#050505;display:flex;flex-wrap:wrap;gap:20px;}.screen{border:2px solid #333;background:#1a1a1a;}iframe{width:100%;height:100%;border:none;}</style></head><body>`)
	for _, f := range frames {
		r := f.Bounds()
		fmt.Fprintf(&b, `<div class="screen" style="width:%gpx;height:%gpx;"><iframe title="%s" srcdoc="%s"></iframe></div>`,
			r.Width, r.Height, html.EscapeString(f.Name), html.EscapeString(FrameHTML(f)))
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// FileName turns a frame name into a safe download name with ext.
func FileName(name, ext string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "screen"
	}
	return name + "." + ext
}
