package page

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/pagecheck/pkg/element"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
	"github.com/devicelab-dev/pagecheck/pkg/resolve"
)

// ParseError represents a definition error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Definition is a page declared in YAML:
//
//	name: checkout
//	elements:
//	  - {name: email, kind: textField, locator: "#email"}
//	sections:
//	  - name: shipping
//	    locator: "#shipping"
//	    elements:
//	      - {name: express, kind: checkbox, locator: "input[value=express]"}
type Definition struct {
	Name     string       `yaml:"name"`
	Elements []ElementDef `yaml:"elements"`
	Sections []SectionDef `yaml:"sections"`
}

// SectionDef declares a section.
type SectionDef struct {
	Name     string       `yaml:"name"`
	Display  string       `yaml:"display,omitempty"`
	Locator  string       `yaml:"locator"`
	Dialect  string       `yaml:"dialect,omitempty"` // css or xpath; inferred when empty
	Elements []ElementDef `yaml:"elements"`
	Sections []SectionDef `yaml:"sections"`

	line int
}

// UnmarshalYAML records the line of the declaration.
func (s *SectionDef) UnmarshalYAML(n *yaml.Node) error {
	type plain SectionDef
	if err := n.Decode((*plain)(s)); err != nil {
		return err
	}
	s.line = n.Line
	return nil
}

// ElementDef declares an element.
type ElementDef struct {
	Name    string    `yaml:"name"`
	Display string    `yaml:"display,omitempty"`
	Kind    string    `yaml:"kind"`
	Locator string    `yaml:"locator"`
	Dialect string    `yaml:"dialect,omitempty"`
	Global  bool      `yaml:"global,omitempty"`
	Ladder  []string  `yaml:"ladder,omitempty"`
	Item    string    `yaml:"item,omitempty"` // Lists
	Busy    string    `yaml:"busy,omitempty"` // Lists and tables
	Shape   *ShapeDef `yaml:"shape,omitempty"`

	line int
}

// UnmarshalYAML records the line of the declaration.
func (e *ElementDef) UnmarshalYAML(n *yaml.Node) error {
	type plain ElementDef
	if err := n.Decode((*plain)(e)); err != nil {
		return err
	}
	e.line = n.Line
	return nil
}

// ShapeDef overrides parts of the default table shape.
type ShapeDef struct {
	Body         string `yaml:"body,omitempty"`
	Section      string `yaml:"section,omitempty"`
	Row          string `yaml:"row,omitempty"`
	Column       string `yaml:"column,omitempty"`
	HeaderBody   string `yaml:"headerBody,omitempty"`
	HeaderRow    string `yaml:"headerRow,omitempty"`
	HeaderColumn string `yaml:"headerColumn,omitempty"`
	RowHeader    string `yaml:"rowHeader,omitempty"`
}

// LoadDefinition reads a page definition file.
func LoadDefinition(fs afero.Fs, path string) (*Definition, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page definition: %w", err)
	}
	return ParseDefinition(data, path)
}

// ParseDefinition parses a page definition.
func ParseDefinition(data []byte, sourcePath string) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, &ParseError{Path: sourcePath, Message: fmt.Sprintf("invalid page definition: %v", err)}
	}
	if def.Name == "" {
		def.Name = trimExt(filepath.Base(sourcePath))
	}
	if len(def.Elements) == 0 && len(def.Sections) == 0 {
		return nil, &ParseError{Path: sourcePath, Line: 1, Message: "page declares no elements"}
	}
	return &def, nil
}

// Builder converts the definition. Errors carry the declaration's line.
func (d *Definition) Builder(sourcePath string) (*Builder, error) {
	b := NewBuilder(d.Name)
	if err := fill(b, d.Elements, d.Sections, sourcePath); err != nil {
		return nil, err
	}
	return b, nil
}

func fill(b *Builder, elements []ElementDef, sections []SectionDef, sourcePath string) error {
	for _, ed := range elements {
		decl, err := ed.decl()
		if err != nil {
			return &ParseError{Path: sourcePath, Line: ed.line, Message: err.Error()}
		}
		b.Add(decl)
	}
	for _, sd := range sections {
		loc, err := expression(sd.Locator, sd.Dialect)
		if err != nil {
			return &ParseError{Path: sourcePath, Line: sd.line, Message: fmt.Sprintf("section %q: %v", sd.Name, err)}
		}
		child := b.SectionOf(sd.Name, sd.Display, loc)
		if err := fill(child, sd.Elements, sd.Sections, sourcePath); err != nil {
			return err
		}
	}
	return nil
}

func (ed ElementDef) decl() (Decl, error) {
	kind, err := element.ParseKind(ed.Kind)
	if err != nil {
		return Decl{}, fmt.Errorf("element %q: %w", ed.Name, err)
	}
	loc, err := expression(ed.Locator, ed.Dialect)
	if err != nil {
		return Decl{}, fmt.Errorf("element %q: %w", ed.Name, err)
	}
	d := Decl{
		Name:    ed.Name,
		Display: ed.Display,
		Kind:    kind,
		Locator: loc,
		Global:  ed.Global,
	}
	for _, s := range ed.Ladder {
		st, err := resolve.ParseStrategy(s)
		if err != nil {
			return Decl{}, fmt.Errorf("element %q: %w", ed.Name, err)
		}
		d.Ladder = append(d.Ladder, st)
	}
	if ed.Item != "" {
		d.Item = locator.NewWithDialect(ed.Item, loc.Dialect())
	}
	if ed.Busy != "" {
		d.Busy = locator.New(ed.Busy)
	}
	if ed.Shape != nil {
		shape := ed.Shape.apply(locator.DefaultTableShape(loc.Dialect()))
		d.Shape = &shape
	}
	return d, nil
}

func (s *ShapeDef) apply(t locator.TableShape) locator.TableShape {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&t.Body, s.Body)
	set(&t.Section, s.Section)
	set(&t.Row, s.Row)
	set(&t.Column, s.Column)
	set(&t.HeaderBody, s.HeaderBody)
	set(&t.HeaderRow, s.HeaderRow)
	set(&t.HeaderColumn, s.HeaderColumn)
	set(&t.RowHeader, s.RowHeader)
	return t
}

func expression(pattern, dialect string) (*locator.Expression, error) {
	if pattern == "" {
		return nil, nil
	}
	if dialect == "" {
		return locator.New(pattern), nil
	}
	d, err := locator.ParseDialect(dialect)
	if err != nil {
		return nil, err
	}
	return locator.NewWithDialect(pattern, d), nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// CheckFile is a verification pass declared in YAML. Page is resolved
// relative to the check file.
type CheckFile struct {
	Page     string  `yaml:"page"`
	URL      string  `yaml:"url,omitempty"`
	Preamble string  `yaml:"preamble,omitempty"`
	Populate []Entry `yaml:"populate,omitempty"`
	Checks   []Check `yaml:"checks"`
}

// LoadCheckFile reads a check file.
func LoadCheckFile(fs afero.Fs, path string) (*CheckFile, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read check file: %w", err)
	}
	var cf CheckFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, &ParseError{Path: path, Message: fmt.Sprintf("invalid check file: %v", err)}
	}
	if len(cf.Checks) == 0 {
		return nil, &ParseError{Path: path, Line: 1, Message: "no checks declared"}
	}
	for i, c := range cf.Checks {
		if c.Element == "" {
			return nil, &ParseError{Path: path, Message: fmt.Sprintf("check %d names no element", i+1)}
		}
	}
	if cf.Page != "" && !filepath.IsAbs(cf.Page) {
		cf.Page = filepath.Join(filepath.Dir(path), cf.Page)
	}
	return &cf, nil
}
