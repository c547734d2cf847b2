// Package cli provides the command-line interface for pagecheck.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pagecheck/pkg/core"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to workspace pagecheck.yaml",
		EnvVars: []string{"PAGECHECK_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "browser",
		Aliases: []string{"b"},
		Usage:   "Browser identity used by the comparison policy (chrome, safari, ...)",
		EnvVars: []string{"PAGECHECK_BROWSER"},
	},
	&cli.StringFlag{
		Name:    "control-url",
		Usage:   "DevTools WebSocket URL of a running browser",
		EnvVars: []string{"PAGECHECK_CONTROL_URL"},
	},
	&cli.IntFlag{
		Name:    "timeout",
		Usage:   "Default wait timeout in ms",
		EnvVars: []string{"PAGECHECK_TIMEOUT"},
	},
	&cli.StringFlag{
		Name:    "screenshots",
		Usage:   "Directory for failure screenshots",
		EnvVars: []string{"PAGECHECK_SCREENSHOTS"},
	},
	&cli.StringFlag{
		Name:    "locale",
		Usage:   "Locale for translated expectations",
		EnvVars: []string{"PAGECHECK_LOCALE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"PAGECHECK_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "pagecheck",
		Usage:   "Declarative locators and UI state verification for web pages",
		Version: Version,
		Description: `pagecheck resolves page elements declared in YAML and verifies their
state, collecting every failed check with a highlighted screenshot.

Examples:
  pagecheck classify "//div[@id='a']" "#a"
  pagecheck cell --dialect xpath 2 3
  pagecheck inspect pages/settings.yaml
  pagecheck verify --html settings.html settings.check.yaml
  pagecheck --control-url ws://127.0.0.1:9222/devtools/browser/x verify settings.check.yaml`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") || os.Getenv("NO_COLOR") != "" {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{
			classifyCommand,
			cellCommand,
			inspectCommand,
			verifyCommand,
		},
	}
}

// Exit codes
const (
	exitFailed = 1 // Checks failed, or the run stopped on an unclassified error
	exitConfig = 2 // Bad flags, config, page definition or check file
	exitDriver = 3 // Browser unreachable or lost
)

// exitCode maps the error category of a failed run to the process status.
func exitCode(err error) int {
	switch core.CategoryOf(err) {
	case core.ErrCategoryConfig:
		return exitConfig
	case core.ErrCategoryConnection:
		return exitDriver
	}
	return exitFailed
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
