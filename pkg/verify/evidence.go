package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/logger"
	"github.com/devicelab-dev/pagecheck/pkg/report"
)

var reUnsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Evidence captures highlighted screenshots of failing elements.
type Evidence struct {
	Fs      afero.Fs
	Dir     string
	Driver  core.Screenshotter
	Gallery *report.Gallery // Optional
	Config  core.ArtifactConfig
	Pass    string
	Log     *logrus.Entry

	now func() time.Time
}

// NewEvidence creates an evidence writer with the default artifact config.
func NewEvidence(fs afero.Fs, dir string, driver core.Screenshotter, gallery *report.Gallery) *Evidence {
	return &Evidence{
		Fs:      fs,
		Dir:     dir,
		Driver:  driver,
		Gallery: gallery,
		Config:  core.DefaultArtifactConfig(),
	}
}

func (e *Evidence) log() *logrus.Entry {
	if e.Log != nil {
		return e.Log
	}
	return logger.Component("evidence")
}

func (e *Evidence) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// FileName returns the screenshot file name for an element.
func (e *Evidence) FileName(name string) string {
	safe := strings.Trim(reUnsafeName.ReplaceAllString(name, "_"), "_")
	if safe == "" {
		safe = core.AttachmentScreenshot
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s.png", e.clock().Format("20060102T150405.000"), safe, id)
}

// Capture highlights ref, takes a screenshot and stores it. Failures are
// logged and reported as false; they never fail the verification.
func (e *Evidence) Capture(ctx context.Context, ref ElementRef, failure string) (core.Attachment, bool) {
	if !e.Config.Screenshot || e.Driver == nil || e.Fs == nil {
		return core.Attachment{}, false
	}
	log := e.log().WithField("element", ref.DisplayName())

	data, err := e.screenshot(ctx, ref, log)
	if err != nil {
		log.WithError(err).Warn("screenshot failed")
		return core.Attachment{}, false
	}

	if err := e.Fs.MkdirAll(e.Dir, 0o755); err != nil {
		log.WithError(err).Warn("cannot create screenshot dir")
		return core.Attachment{}, false
	}
	path := filepath.Join(e.Dir, e.FileName(ref.DisplayName()))
	if err := afero.WriteFile(e.Fs, path, data, 0o644); err != nil {
		log.WithError(err).Warn("cannot write screenshot")
		return core.Attachment{}, false
	}

	att := core.NewScreenshotAttachment(ref.DisplayName(), path, data)
	att.Locator = ref.Describe()
	if e.Gallery != nil {
		e.Gallery.Add(report.Entry{Attachment: att, Pass: e.Pass, Failure: failure})
	}
	log.WithField("path", path).Info("screenshot saved")
	return att, true
}

func (e *Evidence) screenshot(ctx context.Context, ref ElementRef, log *logrus.Entry) ([]byte, error) {
	h, ok := ref.Locate(ctx, core.VisibilityAny)
	if !ok {
		log.Debug("element not locatable, capturing page without highlight")
		return e.Driver.Screenshot(ctx)
	}

	if err := h.ScrollIntoView(ctx); err != nil {
		log.WithError(err).Debug("scroll into view failed")
	}
	if !e.Config.Highlight {
		return e.Driver.Screenshot(ctx)
	}

	style := e.Config.HighlightStyle
	if style == "" {
		style = core.DefaultHighlightStyle
	}
	prev, err := h.SetStyle(ctx, style)
	if err != nil {
		log.WithError(err).Debug("highlight failed")
		return e.Driver.Screenshot(ctx)
	}
	defer func() {
		if _, err := h.SetStyle(ctx, prev); err != nil {
			log.WithError(err).Debug("restore style failed")
		}
	}()
	return e.Driver.Screenshot(ctx)
}
