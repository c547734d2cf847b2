// Package session holds everything one verification run needs: the driver,
// the comparison evaluator, the waiter, the assertion queue and where
// evidence goes. Parallel workers create one session each.
package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/text/language"

	"github.com/devicelab-dev/pagecheck/pkg/compare"
	"github.com/devicelab-dev/pagecheck/pkg/config"
	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/i18n"
	"github.com/devicelab-dev/pagecheck/pkg/logger"
	"github.com/devicelab-dev/pagecheck/pkg/report"
	"github.com/devicelab-dev/pagecheck/pkg/verify"
	"github.com/devicelab-dev/pagecheck/pkg/wait"
)

// Options override collaborators a session would otherwise create.
type Options struct {
	Fs        afero.Fs          // Default: OS filesystem
	Gallery   *report.Gallery   // Default: a new gallery
	Logger    *logrus.Logger    // Default: logger.Global()
	Localizer compare.Localizer // Default: catalogs from the configured locale dir
}

// Session is the per-run execution context.
type Session struct {
	ID        string
	Config    *config.Config
	Driver    core.Driver
	Evaluator *compare.Evaluator
	Waiter    *wait.Waiter
	Queue     *verify.Queue
	Evidence  *verify.Evidence
	Gallery   *report.Gallery
	Fs        afero.Fs
	Log       *logrus.Entry
}

// New creates a session for driver d.
func New(cfg *config.Config, d core.Driver, opts Options) (*Session, error) {
	if d == nil {
		return nil, core.ErrInvalidConfig.WithMessage("session requires a driver")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Gallery == nil {
		opts.Gallery = report.NewGallery()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Global()
	}

	id := uuid.NewString()
	log := opts.Logger.WithField("pass", id[:8])

	localizer := opts.Localizer
	if localizer == nil {
		catalog, err := loadCatalog(cfg, opts.Fs)
		if err != nil {
			return nil, err
		}
		localizer = catalog
	}

	browser := cfg.BrowserFor(d.Browser())

	eval := compare.New(localizer)
	eval.Strings = compare.PolicyFor(browser, cfg.LenientBrowsers)
	if tag, err := language.Parse(cfg.Locale); err == nil {
		eval.Language = tag
	}

	waiter := wait.New(cfg.DefaultTimeout(), cfg.PollInterval())
	waiter.Log = log.WithField("component", "wait")

	evidence := verify.NewEvidence(opts.Fs, cfg.ScreenshotPath(), d, opts.Gallery)
	evidence.Config.Screenshot = cfg.ScreenshotsEnabled()
	evidence.Config.HighlightStyle = cfg.HighlightStyle
	evidence.Pass = id
	evidence.Log = log.WithField("component", "evidence")

	queue := verify.NewQueue(eval, evidence)
	queue.Log = log.WithField("component", "verify")

	log.WithFields(logrus.Fields{
		"browser": browser,
		"locale":  cfg.Locale,
	}).Debug("session started")

	return &Session{
		ID:        id,
		Config:    cfg,
		Driver:    d,
		Evaluator: eval,
		Waiter:    waiter,
		Queue:     queue,
		Evidence:  evidence,
		Gallery:   opts.Gallery,
		Fs:        opts.Fs,
		Log:       log,
	}, nil
}

// loadCatalog reads the configured locale dir, or <home>/locales when none
// is configured. It returns nil when neither exists, so translate operators
// fail with core.ErrTranslationMissing.
func loadCatalog(cfg *config.Config, fs afero.Fs) (compare.Localizer, error) {
	dir := cfg.LocalePath()
	if dir == "" {
		dir = config.GetLocaleDir()
		if ok, _ := afero.DirExists(fs, dir); !ok {
			return nil, nil
		}
	}
	catalog, err := i18n.New(cfg.Locale, cfg.FallbackLocale)
	if err != nil {
		return nil, err
	}
	if err := catalog.LoadDir(fs, dir); err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	return catalog, nil
}

// Component returns the session logger tagged with a component field.
func (s *Session) Component(name string) *logrus.Entry {
	return s.Log.WithField("component", name)
}

// Finish raises the queued failures of the session and writes the gallery
// index when screenshots were captured.
func (s *Session) Finish(ctx context.Context, preamble string) error {
	err := s.Queue.PostExceptions(ctx, preamble)
	if s.Gallery.Len() > 0 {
		if werr := report.WriteIndex(s.Fs, s.Config.ScreenshotPath(), s.Gallery, report.HTMLConfig{}); werr != nil {
			s.Log.WithError(werr).Warn("cannot write gallery index")
		}
	}
	return err
}
