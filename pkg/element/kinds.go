package element

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
)

// Button is a clickable control.
type Button struct{ base }

// Caption returns the button text, or its value attribute for
// <input type="submit"> style buttons.
func (e *Button) Caption(ctx context.Context) (string, error) {
	h, err := e.handle(ctx)
	if err != nil {
		return "", err
	}
	text, err := h.Text(ctx)
	if err != nil || text != "" {
		return text, err
	}
	return h.Value(ctx)
}

// Link is an anchor.
type Link struct{ base }

// Caption returns the link text.
func (e *Link) Caption(ctx context.Context) (string, error) { return e.Text(ctx) }

// Href returns the link target.
func (e *Link) Href(ctx context.Context) (string, error) {
	v, _, err := e.Attribute(ctx, "href")
	return v, err
}

// Label is read-only text.
type Label struct{ base }

// Caption returns the label text.
func (e *Label) Caption(ctx context.Context) (string, error) { return e.Text(ctx) }

// TextField is a text input or textarea.
type TextField struct{ base }

// Value returns the current input value.
func (e *TextField) Value(ctx context.Context) (string, error) {
	h, err := e.handle(ctx)
	if err != nil {
		return "", err
	}
	return h.Value(ctx)
}

// Set replaces the input value.
func (e *TextField) Set(ctx context.Context, value string) error {
	h, err := e.interactive(ctx)
	if err != nil {
		return err
	}
	e.log().WithField("value", value).Debug("set value")
	return h.SetValue(ctx, value)
}

// Clear empties the input.
func (e *TextField) Clear(ctx context.Context) error { return e.Set(ctx, "") }

// Checkbox is a two-state input.
type Checkbox struct{ base }

// Checked reports the current state.
func (e *Checkbox) Checked(ctx context.Context) (bool, error) {
	h, err := e.handle(ctx)
	if err != nil {
		return false, err
	}
	return h.Checked(ctx)
}

// Set clicks the checkbox when its state differs from want.
func (e *Checkbox) Set(ctx context.Context, want bool) error {
	checked, err := e.Checked(ctx)
	if err != nil {
		return err
	}
	if checked == want {
		return nil
	}
	return e.Click(ctx)
}

// Check checks the checkbox.
func (e *Checkbox) Check(ctx context.Context) error { return e.Set(ctx, true) }

// Uncheck unchecks the checkbox.
func (e *Checkbox) Uncheck(ctx context.Context) error { return e.Set(ctx, false) }

// Radio is one option of a radio group.
type Radio struct{ base }

// Selected reports whether the option is chosen.
func (e *Radio) Selected(ctx context.Context) (bool, error) {
	h, err := e.handle(ctx)
	if err != nil {
		return false, err
	}
	return h.Checked(ctx)
}

// Select chooses the option.
func (e *Radio) Select(ctx context.Context) error {
	selected, err := e.Selected(ctx)
	if err != nil || selected {
		return err
	}
	return e.Click(ctx)
}

// SelectList is a <select> element.
type SelectList struct{ base }

// Selected returns the value of the chosen option.
func (e *SelectList) Selected(ctx context.Context) (string, error) {
	h, err := e.handle(ctx)
	if err != nil {
		return "", err
	}
	return h.Value(ctx)
}

// Choose selects the option with the given value.
func (e *SelectList) Choose(ctx context.Context, value string) error {
	h, err := e.interactive(ctx)
	if err != nil {
		return err
	}
	e.log().WithField("option", value).Debug("choose")
	return h.SetValue(ctx, value)
}

// DefaultListItem is the item pattern of a list declared without one.
const DefaultListItem = "li"

// List is a repeated group of items.
type List struct {
	base
	item *locator.Expression
}

func newList(b base, spec Spec) *List {
	item := spec.Item
	if item.IsEmpty() {
		d := locator.CSS
		if spec.Locator != nil {
			d = spec.Locator.Dialect()
		}
		item = locator.NewWithDialect(DefaultListItem, d)
	}
	return &List{base: b, item: item}
}

// ItemAt returns the locator of the index-th (1-based) item and the scope
// it resolves in below the list.
func (e *List) ItemAt(index int) (*locator.Expression, locator.Scope, error) {
	return locator.IndexWithin(e.Locator(), e.item, index)
}

// ItemCount returns the number of items.
func (e *List) ItemCount(ctx context.Context) (int, error) {
	h, err := e.handle(ctx)
	if err != nil {
		return 0, err
	}
	return e.sess.Driver.Count(ctx, h, core.Query{
		Dialect:    e.item.Dialect(),
		Path:       e.item.Pattern(),
		Visibility: core.VisibilityAny,
	})
}

// ItemText returns the text of the index-th (1-based) item.
func (e *List) ItemText(ctx context.Context, index int) (string, error) {
	loc, scope, err := e.ItemAt(index)
	if err != nil {
		return "", err
	}
	found, err := e.childIn(fmt.Sprintf("%s item %d", e.display, index), loc, scope).
		Require(ctx, core.VisibilityAny)
	if err != nil {
		return "", err
	}
	return found.Handle.Text(ctx)
}

// Items returns the text of every item.
func (e *List) Items(ctx context.Context) ([]string, error) {
	n, err := e.ItemCount(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		text, err := e.ItemText(ctx, i)
		if err != nil {
			return nil, err
		}
		items = append(items, text)
	}
	return items, nil
}

// Table is a grid addressed by row and column.
type Table struct {
	base
	shape locator.TableShape
}

func newTable(b base, spec Spec) *Table {
	if spec.Shape != nil {
		return &Table{base: b, shape: *spec.Shape}
	}
	d := locator.CSS
	if spec.Locator != nil {
		d = spec.Locator.Dialect()
	}
	return &Table{base: b, shape: locator.DefaultTableShape(d)}
}

// Shape returns the table's shape.
func (e *Table) Shape() locator.TableShape { return e.shape }

// rel turns a table-relative path into a child expression. XPath children
// start at "/" so they also compose onto the table's own path.
func (e *Table) rel(path string) *locator.Expression {
	if e.shape.Dialect == locator.XPath {
		path = "/" + path
	}
	return locator.NewWithDialect(path, e.shape.Dialect)
}

// RowLocator returns the table-relative path of a body row.
func (e *Table) RowLocator(row int) *locator.Expression {
	return e.rel(e.shape.RowLocator(row))
}

// CellLocator returns the table-relative path of a cell.
func (e *Table) CellLocator(row, col int) *locator.Expression {
	return e.rel(e.shape.CellLocator(row, col))
}

func (e *Table) count(ctx context.Context, rel string) (int, error) {
	h, err := e.handle(ctx)
	if err != nil {
		return 0, err
	}
	return e.sess.Driver.Count(ctx, h, core.Query{
		Dialect:    e.shape.Dialect,
		Path:       e.rel(rel).Pattern(),
		Visibility: core.VisibilityAny,
	})
}

// RowCount returns the number of body rows.
func (e *Table) RowCount(ctx context.Context) (int, error) {
	return e.count(ctx, e.shape.RowsLocator())
}

// ColumnCount returns the number of cells in the first body row.
func (e *Table) ColumnCount(ctx context.Context) (int, error) {
	return e.count(ctx, e.shape.ColumnsLocator())
}

// CellText returns the text of a cell. Rows and columns are 1-based.
func (e *Table) CellText(ctx context.Context, row, col int) (string, error) {
	return e.text(ctx, fmt.Sprintf("%s[%d,%d]", e.display, row, col), e.shape.CellLocator(row, col))
}

// HeaderText returns the text of a column header.
func (e *Table) HeaderText(ctx context.Context, col int) (string, error) {
	return e.text(ctx, fmt.Sprintf("%s header %d", e.display, col), e.shape.HeaderLocator(col))
}

// text reads a table-relative path. The path, joined onto the table's own
// pattern, stands in for that pattern for one lookup of the table's
// resolver.
func (e *Table) text(ctx context.Context, name, rel string) (string, error) {
	alt := e.shape.Within(e.resolver.Target.Locator, rel).Pattern()
	found, err := e.resolver.RequireAlt(ctx, name, alt, core.VisibilityAny)
	if err != nil {
		return "", err
	}
	return found.Handle.Text(ctx)
}

// Ensure every kind implements Element
var (
	_ Element = (*Button)(nil)
	_ Element = (*Link)(nil)
	_ Element = (*Label)(nil)
	_ Element = (*TextField)(nil)
	_ Element = (*Checkbox)(nil)
	_ Element = (*Radio)(nil)
	_ Element = (*SelectList)(nil)
	_ Element = (*List)(nil)
	_ Element = (*Table)(nil)
)
