package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// printer writes colored console output. Colors follow color.NoColor.
type printer struct {
	w     io.Writer
	green func(a ...interface{}) string
	red   func(a ...interface{}) string
	cyan  func(a ...interface{}) string
	gray  func(a ...interface{}) string
	bold  func(a ...interface{}) string
}

func newPrinter(w io.Writer) *printer {
	return &printer{
		w:     w,
		green: color.New(color.FgGreen).SprintFunc(),
		red:   color.New(color.FgRed).SprintFunc(),
		cyan:  color.New(color.FgCyan).SprintFunc(),
		gray:  color.New(color.FgHiBlack).SprintFunc(),
		bold:  color.New(color.Bold).SprintFunc(),
	}
}

func (p *printer) header(title, detail string) {
	fmt.Fprintf(p.w, "\n  %s %s\n", p.bold(title), p.gray(detail))
	fmt.Fprintln(p.w, strings.Repeat("─", 60))
}

func (p *printer) field(key, value string) {
	fmt.Fprintf(p.w, "  %s %s\n", p.cyan(fmt.Sprintf("%-6s", key)), value)
}

func (p *printer) pass(msg string) {
	fmt.Fprintf(p.w, "    %s %s\n", p.green("✓"), msg)
}

func (p *printer) fail(msg, detail string) {
	fmt.Fprintf(p.w, "    %s %s\n", p.red("✗"), msg)
	if detail != "" {
		fmt.Fprintf(p.w, "      %s %s\n", p.gray("╰─"), detail)
	}
}

func (p *printer) tree(depth int, name, kind, describe string) {
	indent := strings.Repeat("  ", depth+1)
	fmt.Fprintf(p.w, "%s%s %s %s\n", indent, p.bold(name), p.gray(kind), describe)
}

func (p *printer) summary(total, failed int, elapsed time.Duration) {
	fmt.Fprintln(p.w)
	if passed := total - failed; passed > 0 {
		fmt.Fprintf(p.w, "  %s (%s)\n", p.green(fmt.Sprintf("%d checks passing", passed)), formatDuration(elapsed))
	}
	if failed > 0 {
		fmt.Fprintf(p.w, "  %s\n", p.red(fmt.Sprintf("%d checks failing", failed)))
	}
}

// formatDuration shows milliseconds below one second, seconds otherwise.
func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%dm %ds", ms/60000, (ms%60000)/1000)
}
