package report

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/devicelab-dev/pagecheck/pkg/core"
)

func TestGallery_ConcurrentAdd(t *testing.T) {
	g := NewGallery()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Add(Entry{Attachment: core.NewScreenshotAttachment("x", "/tmp/x.png", nil)})
		}()
	}
	wg.Wait()

	if g.Len() != 20 {
		t.Errorf("Len() = %d, want 20", g.Len())
	}
}

func TestGallery_EntriesOrdered(t *testing.T) {
	g := NewGallery()
	now := time.Now()
	late := core.Attachment{Name: "late", CapturedAt: now.Add(time.Second)}
	early := core.Attachment{Name: "early", CapturedAt: now}
	g.Add(Entry{Attachment: late})
	g.Add(Entry{Attachment: early})

	entries := g.Entries()
	if entries[0].Name != "early" || entries[1].Name != "late" {
		t.Errorf("Entries() not ordered by capture time: %v, %v", entries[0].Name, entries[1].Name)
	}
}

func TestWriteIndex(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/shots/a.png", []byte{0x89, 'P', 'N', 'G'}, 0o644)

	g := NewGallery()
	a := core.NewScreenshotAttachment("Terms checkbox", "/shots/a.png", nil)
	a.Locator = "#terms"
	g.Add(Entry{Attachment: a, Pass: "p1", Failure: "Expected Terms checkbox to be true but found false"})

	if err := WriteIndex(fs, "/shots", g, HTMLConfig{}); err != nil {
		t.Fatalf("WriteIndex() error: %v", err)
	}

	index, err := ReadIndex(fs, "/shots")
	if err != nil {
		t.Fatal(err)
	}
	if len(index.Entries) != 1 || index.Entries[0].Locator != "#terms" || index.Entries[0].Pass != "p1" {
		t.Errorf("ReadIndex() = %+v", index)
	}
	if index.Title != "Verification Failures" {
		t.Errorf("Title = %q", index.Title)
	}

	html, err := afero.ReadFile(fs, "/shots/gallery.html")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Terms checkbox", "#terms", `src="a.png"`} {
		if !strings.Contains(string(html), want) {
			t.Errorf("gallery.html missing %q", want)
		}
	}
	if ok, _ := afero.Exists(fs, "/shots/gallery.json.tmp"); ok {
		t.Error("temporary index file should be renamed away")
	}
}

func TestWriteIndex_EmbedAssets(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/out/b.png", []byte("png"), 0o644)

	g := NewGallery()
	g.Add(Entry{Attachment: core.NewScreenshotAttachment("b", "/out/b.png", nil)})
	if err := WriteIndex(fs, "/out", g, HTMLConfig{EmbedAssets: true, Title: "Run"}); err != nil {
		t.Fatal(err)
	}

	html, _ := afero.ReadFile(fs, "/out/gallery.html")
	if !strings.Contains(string(html), "data:image/png;base64,") {
		t.Error("embedded gallery should inline screenshots")
	}
}

func TestWriteIndex_Empty(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := WriteIndex(fs, "/empty", NewGallery(), HTMLConfig{}); err != nil {
		t.Fatal(err)
	}
	html, _ := afero.ReadFile(fs, "/empty/gallery.html")
	if !strings.Contains(string(html), "No failures captured.") {
		t.Error("empty gallery should say so")
	}
}
