package page

import (
	"fmt"

	"github.com/devicelab-dev/pagecheck/pkg/element"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
	"github.com/devicelab-dev/pagecheck/pkg/session"
)

// ListRow binds a section to the index-th (1-based) item of list. The
// members declared on tmpl resolve inside that item; tmpl may be nil.
func ListRow(sess *session.Session, list *element.List, index int, tmpl *Builder) (*Section, error) {
	name := fmt.Sprintf("%s[%d]", list.Name(), index)
	display := fmt.Sprintf("%s item %d", list.DisplayName(), index)
	loc, scope, err := list.ItemAt(index)
	if err != nil {
		return nil, err
	}
	return bound(sess, name, display, loc, scope, list, tmpl)
}

// TableRow binds a section to a body row of table.
func TableRow(sess *session.Session, table *element.Table, row int, tmpl *Builder) (*Section, error) {
	name := fmt.Sprintf("%s[%d]", table.Name(), row)
	display := fmt.Sprintf("%s row %d", table.DisplayName(), row)
	return bound(sess, name, display, table.RowLocator(row), locator.ScopeSection, table, tmpl)
}

// TableCell binds a section to one cell of table. Rows and columns are
// 1-based.
func TableCell(sess *session.Session, table *element.Table, row, col int, tmpl *Builder) (*Section, error) {
	name := fmt.Sprintf("%s[%d,%d]", table.Name(), row, col)
	display := fmt.Sprintf("%s[%d,%d]", table.DisplayName(), row, col)
	return bound(sess, name, display, table.CellLocator(row, col), locator.ScopeSection, table, tmpl)
}

func bound(sess *session.Session, name, display string, loc *locator.Expression, scope locator.Scope, parent element.Element, tmpl *Builder) (*Section, error) {
	s := newSectionIn(sess, name, display, loc, scope, parent)
	if err := tmpl.bind(s); err != nil {
		return nil, err
	}
	return s, nil
}
