// Package report collects failure screenshots and writes the gallery index.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/devicelab-dev/pagecheck/pkg/core"
)

// Entry is one gallery item: a screenshot and the failure it documents.
type Entry struct {
	core.Attachment
	Pass    string `json:"pass,omitempty"`    // Verification pass that captured it
	Failure string `json:"failure,omitempty"` // First failure message for the element
}

// Gallery is a thread-safe list of captured screenshots. Several sessions
// may share one gallery.
type Gallery struct {
	mu      sync.Mutex
	entries []Entry
}

// NewGallery creates an empty gallery.
func NewGallery() *Gallery {
	return &Gallery{}
}

// Add appends an entry.
func (g *Gallery) Add(e Entry) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = append(g.entries, e)
}

// Entries returns a copy of the entries ordered by capture time.
func (g *Gallery) Entries() []Entry {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CapturedAt.Before(out[j].CapturedAt)
	})
	return out
}

// Len returns the number of entries.
func (g *Gallery) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Index is the serialized gallery.
type Index struct {
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generatedAt"`
	Entries     []Entry   `json:"entries"`
}

// WriteIndex writes gallery.json and gallery.html into dir.
func WriteIndex(fs afero.Fs, dir string, g *Gallery, cfg HTMLConfig) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create gallery dir: %w", err)
	}
	if cfg.Title == "" {
		cfg.Title = "Verification Failures"
	}

	index := Index{
		Title:       cfg.Title,
		GeneratedAt: time.Now(),
		Entries:     g.Entries(),
	}
	if err := atomicWriteJSON(fs, filepath.Join(dir, "gallery.json"), index); err != nil {
		return fmt.Errorf("write gallery index: %w", err)
	}

	html, err := renderHTML(buildHTMLData(fs, dir, index, cfg))
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if err := afero.WriteFile(fs, filepath.Join(dir, "gallery.html"), []byte(html), 0o644); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}

// ReadIndex loads a gallery index written by WriteIndex.
func ReadIndex(fs afero.Fs, dir string) (*Index, error) {
	data, err := afero.ReadFile(fs, filepath.Join(dir, "gallery.json"))
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse gallery index: %w", err)
	}
	return &index, nil
}

func atomicWriteJSON(fs afero.Fs, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return err
	}
	return fs.Rename(tmp, path)
}
