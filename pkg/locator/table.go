package locator

import "fmt"

// TableShape describes the tags that make up a table so rows, columns and
// cells can be addressed by position. Values are relative to the table
// element itself.
type TableShape struct {
	Dialect Dialect

	Body    string // e.g. "tbody"
	Section string // optional row-grouping tag; carries the row index when set
	Row     string // e.g. "tr"
	Column  string // e.g. "td"

	HeaderBody   string // e.g. "thead"
	HeaderRow    string // e.g. "tr"
	HeaderColumn string // e.g. "th"

	// RowHeader, when set, is the pattern of a leading header cell in every
	// row. Column 1 then addresses it and column n addresses Column n-1.
	RowHeader string
}

// DefaultTableShape returns the shape of a plain HTML table.
func DefaultTableShape(d Dialect) TableShape {
	return TableShape{
		Dialect:      d,
		Body:         "tbody",
		Row:          "tr",
		Column:       "td",
		HeaderBody:   "thead",
		HeaderRow:    "tr",
		HeaderColumn: "th",
	}
}

func (t TableShape) indexed(tag string, index int) string {
	if t.Dialect == XPath {
		return fmt.Sprintf("%s[%d]", tag, index)
	}
	return fmt.Sprintf("%s:nth-of-type(%d)", tag, index)
}

func (t TableShape) join(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += PathJoin(t.Dialect)
		}
		out += p
	}
	return out
}

// RowLocator addresses a row. Row 1 carries no index: the first match of an
// unindexed row path is the first row.
func (t TableShape) RowLocator(row int) string {
	if t.Section != "" {
		section := t.Section
		if row > 1 {
			section = t.indexed(t.Section, row)
		}
		return t.join(t.Body, section, t.Row)
	}
	rowTag := t.Row
	if row > 1 {
		rowTag = t.indexed(t.Row, row)
	}
	return t.join(t.Body, rowTag)
}

// ColumnLocator addresses a cell inside a row.
func (t TableShape) ColumnLocator(col int) string {
	if t.RowHeader != "" {
		if col == 1 {
			return t.RowHeader
		}
		return t.indexed(t.Column, col-1)
	}
	return t.indexed(t.Column, col)
}

// CellLocator addresses the cell at row, col relative to the table.
func (t TableShape) CellLocator(row, col int) string {
	return t.join(t.RowLocator(row), t.ColumnLocator(col))
}

// HeaderLocator addresses the col-th header cell relative to the table.
func (t TableShape) HeaderLocator(col int) string {
	return t.join(t.HeaderBody, t.HeaderRow, t.indexed(t.HeaderColumn, col))
}

// RowsLocator matches every body row.
func (t TableShape) RowsLocator() string {
	return t.join(t.Body, t.Section, t.Row)
}

// ColumnsLocator matches every cell of the first row. Unlike RowLocator(1)
// it indexes the first row, since a count sees every match.
func (t TableShape) ColumnsLocator() string {
	if t.Section != "" {
		return t.join(t.Body, t.indexed(t.Section, 1), t.indexed(t.Row, 1), t.Column)
	}
	return t.join(t.Body, t.indexed(t.Row, 1), t.Column)
}

// Within prefixes a table-relative path with the table's own pattern.
func (t TableShape) Within(table *Expression, rel string) *Expression {
	return NewWithDialect(table.Pattern()+PathJoin(t.Dialect)+rel, t.Dialect)
}
