package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// HTMLConfig contains configuration for the gallery page.
type HTMLConfig struct {
	Title       string // Page title (default: "Verification Failures")
	EmbedAssets bool   // Embed screenshots as base64 (makes file larger but portable)
}

// HTMLData contains all data needed for the HTML template.
type HTMLData struct {
	Title       string
	GeneratedAt string
	Items       []HTMLItem
}

// HTMLItem is one rendered screenshot card.
type HTMLItem struct {
	Name       string
	Locator    string
	Failure    string
	Pass       string
	CapturedAt string
	Src        template.URL // Relative path or data URI
}

func buildHTMLData(fs afero.Fs, dir string, index Index, cfg HTMLConfig) HTMLData {
	data := HTMLData{
		Title:       index.Title,
		GeneratedAt: index.GeneratedAt.Format("2006-01-02 15:04:05"),
	}
	for _, e := range index.Entries {
		src := relativeSrc(dir, e.Path)
		if cfg.EmbedAssets {
			if embedded := loadAsBase64(fs, e.Path); embedded != "" {
				src = embedded
			}
		}

		data.Items = append(data.Items, HTMLItem{
			Name:       e.Name,
			Locator:    e.Locator,
			Failure:    e.Failure,
			Pass:       e.Pass,
			CapturedAt: e.CapturedAt.Format("15:04:05.000"),
			Src:        template.URL(src), //#nosec G203 -- local screenshot path or data URI
		})
	}
	return data
}

func relativeSrc(dir, path string) string {
	if rel, err := filepath.Rel(dir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func loadAsBase64(fs afero.Fs, path string) string {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := "image/png"
	if ext == ".jpg" || ext == ".jpeg" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func renderHTML(data HTMLData) (string, error) {
	tmpl, err := template.New("gallery").Parse(htmlTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f9fafb;
            --text-primary: #111827;
            --text-secondary: #6b7280;
            --border: #e5e7eb;
            --failed: #dc2626;
        }
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; background: var(--bg-secondary); color: var(--text-primary); margin: 0; padding: 24px; }
        h1 { font-size: 20px; margin: 0 0 4px; }
        .meta { color: var(--text-secondary); font-size: 13px; margin-bottom: 24px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(360px, 1fr)); gap: 16px; }
        .card { background: var(--bg-primary); border: 1px solid var(--border); border-radius: 8px; overflow: hidden; }
        .card img { width: 100%; display: block; border-bottom: 1px solid var(--border); }
        .card .body { padding: 12px; font-size: 13px; }
        .card .name { font-weight: 600; }
        .card .locator { font-family: ui-monospace, monospace; color: var(--text-secondary); word-break: break-all; }
        .card .failure { color: var(--failed); margin-top: 6px; }
        .empty { color: var(--text-secondary); }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <div class="meta">Generated {{.GeneratedAt}} &middot; {{len .Items}} screenshot(s)</div>
    {{if .Items}}
    <div class="grid">
        {{range .Items}}
        <div class="card">
            <img src="{{.Src}}" alt="{{.Name}}">
            <div class="body">
                <div class="name">{{.Name}}</div>
                {{if .Locator}}<div class="locator">{{.Locator}}</div>{{end}}
                {{if .Failure}}<div class="failure">{{.Failure}}</div>{{end}}
                <div class="meta">{{.CapturedAt}}{{if .Pass}} &middot; pass {{.Pass}}{{end}}</div>
            </div>
        </div>
        {{end}}
    </div>
    {{else}}
    <p class="empty">No failures captured.</p>
    {{end}}
</body>
</html>
`
