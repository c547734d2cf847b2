package cli

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pagecheck/pkg/locator"
)

var classifyCommand = &cli.Command{
	Name:      "classify",
	Usage:     "Print the dialect of each locator pattern",
	ArgsUsage: "<pattern>...",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Fail on patterns carrying both CSS and XPath markers",
		},
	},
	Action: runClassify,
}

func runClassify(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one pattern is required")
	}
	out := newPrinter(c.App.Writer)
	ambiguous := 0
	for _, pattern := range c.Args().Slice() {
		if c.Bool("strict") {
			d, err := locator.ClassifyStrict(pattern)
			if err != nil {
				out.fail(pattern, err.Error())
				ambiguous++
				continue
			}
			out.field(d.String(), pattern)
			continue
		}
		out.field(locator.Classify(pattern).String(), pattern)
	}
	if ambiguous > 0 {
		return fmt.Errorf("%d ambiguous pattern(s)", ambiguous)
	}
	return nil
}

var cellCommand = &cli.Command{
	Name:      "cell",
	Usage:     "Print the locator of a table cell (1-based row and column)",
	ArgsUsage: "<row> <column>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "dialect",
			Usage: "Locator dialect (css, xpath)",
			Value: "css",
		},
		&cli.StringFlag{
			Name:  "table",
			Usage: "Table locator the cell is composed under",
		},
		&cli.BoolFlag{
			Name:  "header",
			Usage: "Print the header cell of <column> instead",
		},
	},
	Action: runCell,
}

func runCell(c *cli.Context) error {
	d, err := locator.ParseDialect(c.String("dialect"))
	if err != nil {
		return err
	}
	shape := locator.DefaultTableShape(d)

	var rel string
	if c.Bool("header") {
		col, err := positional(c, 0, "column")
		if err != nil {
			return err
		}
		rel = shape.HeaderLocator(col)
	} else {
		row, err := positional(c, 0, "row")
		if err != nil {
			return err
		}
		col, err := positional(c, 1, "column")
		if err != nil {
			return err
		}
		rel = shape.CellLocator(row, col)
	}

	if table := c.String("table"); table != "" {
		rel = shape.Within(locator.NewWithDialect(table, d), rel).Pattern()
	}
	fmt.Fprintln(c.App.Writer, rel)
	return nil
}

func positional(c *cli.Context, i int, name string) (int, error) {
	if c.NArg() <= i {
		return 0, fmt.Errorf("missing <%s>", name)
	}
	n, err := strconv.Atoi(c.Args().Get(i))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("<%s> must be a positive integer, got %q", name, c.Args().Get(i))
	}
	return n, nil
}
