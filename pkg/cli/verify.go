package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pagecheck/pkg/config"
	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/driver/cdp"
	"github.com/devicelab-dev/pagecheck/pkg/driver/static"
	"github.com/devicelab-dev/pagecheck/pkg/logger"
	"github.com/devicelab-dev/pagecheck/pkg/page"
	"github.com/devicelab-dev/pagecheck/pkg/report"
	"github.com/devicelab-dev/pagecheck/pkg/session"
	"github.com/devicelab-dev/pagecheck/pkg/verify"
)

var verifyCommand = &cli.Command{
	Name:      "verify",
	Usage:     "Run check files against a page",
	ArgsUsage: "<check-file>...",
	Description: `Resolve the page definition named by each check file, populate the
declared fields and verify every check. All failures of a file are reported
together; failing elements are highlighted in a screenshot.

The page is read from --html (a static snapshot, CSS locators only) or opened
in a browser at --url or the check file's url.

Examples:
  pagecheck verify --html settings.html settings.check.yaml
  pagecheck verify --url https://example.test/settings settings.check.yaml
  pagecheck --browser safari verify checks/*.check.yaml`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "html",
			Usage: "Verify against a static HTML snapshot instead of a browser",
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "Page URL, overriding the check file's url",
		},
		&cli.BoolFlag{
			Name:  "headed",
			Usage: "Show the launched browser window",
		},
	},
	Action: runVerify,
}

var inspectCommand = &cli.Command{
	Name:      "inspect",
	Usage:     "Print the elements of a page definition with their effective locators",
	ArgsUsage: "<page-file>",
	Action:    runInspect,
}

// loadConfig reads the workspace config and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(config.GetHome())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v := c.String("browser"); v != "" {
		cfg.Browser = v
	}
	if v := c.String("control-url"); v != "" {
		cfg.ControlURL = v
	}
	if v := c.Int("timeout"); v > 0 {
		cfg.DefaultTimeoutMs = v
	}
	if v := c.String("screenshots"); v != "" {
		cfg.ScreenshotDir = v
	}
	if v := c.String("locale"); v != "" {
		cfg.Locale = v
	}
	if c.Bool("headed") {
		headless := false
		cfg.Headless = &headless
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogging(c *cli.Context, cfg *config.Config) {
	if c.Bool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}
	dir := cfg.ScreenshotPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: cannot create %s: %v\n", dir, err)
		return
	}
	if err := logger.Init(filepath.Join(dir, "pagecheck.log")); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: Failed to initialize logger: %v\n", err)
	}
}

// drivers hands out one driver per check file. A browser is launched once
// and reused; snapshots are re-read so every file starts from the markup.
type drivers struct {
	fs      afero.Fs
	cfg     *config.Config
	html    string
	url     string
	browser *cdp.Driver
}

func (d *drivers) open(ctx context.Context, cf *page.CheckFile) (core.Driver, error) {
	if d.html != "" {
		doc, err := static.LoadPageSource(d.fs, d.html)
		if err != nil {
			return nil, err
		}
		return static.New(doc), nil
	}

	url := d.url
	if url == "" {
		url = cf.URL
	}
	if url == "" {
		return nil, core.ErrInvalidConfig.WithMessage("no page to open: pass --html or --url, or set url in the check file")
	}
	if d.browser == nil {
		b, err := cdp.Launch(ctx, cdp.Config{
			ControlURL: d.cfg.ControlURL,
			Headless:   d.cfg.IsHeadless(),
			Browser:    d.cfg.Browser,
		})
		if err != nil {
			return nil, err
		}
		d.browser = b
	}
	if err := d.browser.Open(ctx, url); err != nil {
		return nil, err
	}
	return d.browser, nil
}

func (d *drivers) close() {
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			logger.Warn("closing browser: %v", err)
		}
	}
}

func runVerify(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one check file is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	initLogging(c, cfg)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := afero.NewOsFs()
	ds := &drivers{fs: fs, cfg: cfg, html: c.String("html"), url: c.String("url")}
	defer ds.close()

	out := newPrinter(c.App.Writer)
	gallery := report.NewGallery()
	failedFiles := 0
	for _, path := range c.Args().Slice() {
		failed, err := verifyFile(ctx, out, fs, cfg, ds, gallery, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if failed {
			failedFiles++
		}
	}
	if failedFiles == 0 {
		return nil
	}

	dir := cfg.ScreenshotPath()
	if index, err := report.ReadIndex(fs, dir); err == nil {
		fmt.Fprintln(out.w)
		out.field("shots", fmt.Sprintf("%d in %s", len(index.Entries), filepath.Join(dir, "gallery.html")))
	}
	return core.ErrAssertionsFailed.WithMessage(
		fmt.Sprintf("%d of %d check file(s) failed; screenshots in %s", failedFiles, c.NArg(), dir))
}

// verifyFile reports whether any check failed. An error means the pass
// could not run to the end.
func verifyFile(ctx context.Context, out *printer, fs afero.Fs, cfg *config.Config, ds *drivers, gallery *report.Gallery, path string) (bool, error) {
	start := time.Now()
	cf, err := page.LoadCheckFile(fs, path)
	if err != nil {
		return false, err
	}
	if cf.Page == "" {
		return false, core.ErrInvalidConfig.WithMessage("check file names no page")
	}
	def, err := page.LoadDefinition(fs, cf.Page)
	if err != nil {
		return false, err
	}
	b, err := def.Builder(cf.Page)
	if err != nil {
		return false, err
	}

	d, err := ds.open(ctx, cf)
	if err != nil {
		return false, err
	}
	sess, err := session.New(cfg, d, session.Options{Fs: fs, Gallery: gallery})
	if err != nil {
		return false, err
	}
	p, err := b.Build(sess)
	if err != nil {
		return false, err
	}

	out.header(def.Name, path)
	if err := page.Populate(ctx, p, cf.Populate); err != nil {
		return false, err
	}

	err = page.Verify(ctx, p, cf.Checks, cf.Preamble)
	if err == nil {
		for _, chk := range cf.Checks {
			out.pass(chk.Element)
		}
		out.summary(len(cf.Checks), 0, time.Since(start))
		return false, nil
	}

	var agg *verify.AggregateError
	if !errors.As(err, &agg) {
		return false, err
	}
	for _, f := range agg.Failures {
		out.fail(f.Status.String(), f.Message)
	}
	out.summary(len(cf.Checks), len(agg.Failures), time.Since(start))
	if err != error(agg) {
		// Aborted: the failures so far are joined to the cause.
		return true, err
	}
	return true, nil
}

func runInspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one page file is required")
	}
	path := c.Args().First()
	fs := afero.NewOsFs()
	def, err := page.LoadDefinition(fs, path)
	if err != nil {
		return err
	}
	b, err := def.Builder(path)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Describing locators needs a session but no document.
	doc, err := static.ParsePageSource(strings.NewReader("<html><body></body></html>"))
	if err != nil {
		return err
	}
	sess, err := session.New(cfg, static.New(doc), session.Options{Fs: fs})
	if err != nil {
		return err
	}
	p, err := b.Build(sess)
	if err != nil {
		return err
	}

	out := newPrinter(c.App.Writer)
	out.header(p.Name(), path)
	printMembers(out, p, 0)
	return nil
}

func printMembers(out *printer, c page.Container, depth int) {
	for _, el := range c.Elements() {
		out.tree(depth, el.Name(), el.Kind().String(), el.Describe())
	}
	for _, s := range c.Sections() {
		out.tree(depth, s.Name(), "section", s.Describe())
		printMembers(out, s, depth+1)
	}
}
