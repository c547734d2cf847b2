package page

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/devicelab-dev/pagecheck/pkg/driver/static"
	"github.com/devicelab-dev/pagecheck/pkg/element"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
	"github.com/devicelab-dev/pagecheck/pkg/resolve"
	"github.com/devicelab-dev/pagecheck/pkg/verify"
)

const settingsHTML = `<html><body>
<h1 id="title">Privacy</h1>
<section id="prefs">
  <label><input type="checkbox" id="newsletter" checked> Newsletter</label>
  <label><input type="checkbox" id="offers"> Offers</label>
  <label><input type="checkbox" id="tracking" checked> Tracking</label>
</section>
<table id="devices">
  <tr><td>Laptop</td><td>Berlin</td></tr>
  <tr><td>Phone</td><td>Paris</td></tr>
</table>
<input id="nickname" name="nickname">
</body></html>`

const settingsPage = `name: settings
elements:
  - name: title
    kind: label
    locator: "#title"
  - name: nickname
    kind: text_field
    locator: nickname
    ladder: [name, css]
  - name: devices
    kind: table
    locator: "#devices"
sections:
  - name: prefs
    locator: "#prefs"
    elements:
      - {name: newsletter, kind: checkbox, locator: "#newsletter", display: Newsletter}
      - {name: offers, kind: checkbox, locator: "#offers", display: Offers}
      - {name: tracking, kind: checkbox, locator: "#tracking", display: Tracking}
`

const settingsChecks = `page: settings.yaml
preamble: privacy settings
populate:
  - {element: nickname, value: ada}
checks:
  - {element: title, expected: Privacy}
  - {element: nickname, expected: {startsWith: ad}}
  - {element: devices, property: rowCount, expected: 2}
  - {element: prefs.newsletter, property: checked, expected: true}
  - {element: prefs.offers, property: checked, expected: false}
  - {element: prefs.tracking, property: checked, expected: {notEqual: true}}
`

func TestDefinition_EndToEndOnStaticHTML(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/suite/settings.html", []byte(settingsHTML), 0o644)
	_ = afero.WriteFile(fs, "/suite/settings.yaml", []byte(settingsPage), 0o644)
	_ = afero.WriteFile(fs, "/suite/settings.check.yaml", []byte(settingsChecks), 0o644)

	cf, err := LoadCheckFile(fs, "/suite/settings.check.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cf.Page != "/suite/settings.yaml" {
		t.Errorf("page path = %q", cf.Page)
	}
	def, err := LoadDefinition(fs, cf.Page)
	if err != nil {
		t.Fatal(err)
	}
	b, err := def.Builder(cf.Page)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := static.LoadPageSource(fs, "/suite/settings.html")
	if err != nil {
		t.Fatal(err)
	}
	p, err := b.Build(newSession(t, static.New(doc), fs))
	if err != nil {
		t.Fatal(err)
	}

	if err := Populate(ctx, p, cf.Populate); err != nil {
		t.Fatalf("Populate() = %v", err)
	}
	err = Verify(ctx, p, cf.Checks, cf.Preamble)

	var agg *verify.AggregateError
	if !errors.As(err, &agg) || len(agg.Failures) != 1 {
		t.Fatalf("Verify() = %v", err)
	}
	if !strings.Contains(agg.Failures[0].Message, "Tracking (#prefs #tracking)") {
		t.Errorf("failure = %q", agg.Failures[0].Message)
	}
	if shots := pngFiles(t, fs, "/shots"); len(shots) != 1 {
		t.Errorf("screenshots = %v, want exactly one", shots)
	}
	if ok, _ := afero.Exists(fs, "/shots/gallery.html"); !ok {
		t.Error("gallery index not written")
	}
}

func TestTableCountsOnStaticHTML(t *testing.T) {
	ctx := context.Background()
	doc, err := static.ParsePageSource(strings.NewReader(`<html><body><table id="t">
  <tr><td>a1</td><td>b1</td></tr>
  <tr><td>a2</td><td>b2</td></tr>
  <tr><td>a3</td><td>b3</td></tr>
</table></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewBuilder("grid").Element(element.KindTable, "t", "#t").Build(newSession(t, static.New(doc), afero.NewMemMapFs()))
	if err != nil {
		t.Fatal(err)
	}
	tbl, _ := p.Element("t")

	for prop, want := range map[string]int{"rowCount": 3, "columnCount": 2} {
		got, err := element.Property(ctx, tbl, prop)
		if err != nil || got != want {
			t.Errorf("%s = %v, %v, want %d", prop, got, err, want)
		}
	}
	if got, err := tbl.(*element.Table).CellText(ctx, 3, 2); err != nil || got != "b3" {
		t.Errorf("CellText(3,2) = %q, %v", got, err)
	}
	if err := Verify(ctx, p, []Check{
		{Element: "t", Property: "rowCount", Expected: 3},
		{Element: "t", Property: "columnCount", Expected: 2},
	}, "grid"); err != nil {
		t.Errorf("Verify() = %v", err)
	}
}

func TestParseDefinition(t *testing.T) {
	data := []byte(`
elements:
  - name: results
    kind: list
    locator: "//ul[@id='results']"
    item: li
    busy: .spinner
  - name: grid
    kind: table
    locator: "#grid"
    shape: {body: "div.body", row: "div.row", column: "div.cell", rowHeader: "div.head"}
  - name: save
    kind: button
    locator: Save
    ladder: [text, id]
  - name: raw
    kind: label
    locator: "div"
    dialect: xpath
`)
	def, err := ParseDefinition(data, "/pages/catalog.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "catalog" {
		t.Errorf("name defaults to the file name, got %q", def.Name)
	}
	b, err := def.Builder("/pages/catalog.yaml")
	if err != nil {
		t.Fatal(err)
	}

	byName := map[string]Decl{}
	for _, d := range b.decls {
		byName[d.Name] = d
	}
	results := byName["results"]
	if results.Kind != element.KindList || results.Item.Dialect() != locator.XPath || results.Busy.Pattern() != ".spinner" {
		t.Errorf("results decl = %+v", results)
	}
	grid := byName["grid"]
	if grid.Shape == nil || grid.Shape.Row != "div.row" || grid.Shape.HeaderColumn != "th" || grid.Shape.RowHeader != "div.head" {
		t.Errorf("grid shape = %+v", grid.Shape)
	}
	save := byName["save"]
	if len(save.Ladder) != 2 || save.Ladder[0] != resolve.ByText || save.Ladder[1] != resolve.ByID {
		t.Errorf("save ladder = %v", save.Ladder)
	}
	if byName["raw"].Locator.Dialect() != locator.XPath {
		t.Error("explicit dialect ignored")
	}
}

func TestParseDefinition_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		line    int
		message string
	}{
		{"unknown kind", "elements:\n  - name: a\n    kind: slider\n    locator: '#a'\n", 2, "slider"},
		{"unknown strategy", "elements:\n  - name: a\n    kind: button\n    locator: a\n    ladder: [smell]\n", 2, "smell"},
		{"bad dialect", "sections:\n  - name: s\n    locator: x\n    dialect: sql\n", 2, "sql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := ParseDefinition([]byte(tt.yaml), "p.yaml")
			if err != nil {
				t.Fatal(err)
			}
			_, err = def.Builder("p.yaml")
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Builder() = %v, want *ParseError", err)
			}
			if perr.Line != tt.line || !strings.Contains(perr.Message, tt.message) {
				t.Errorf("ParseError = %+v", perr)
			}
		})
	}

	if _, err := ParseDefinition([]byte("name: empty\n"), "empty.yaml"); err == nil {
		t.Error("expected error for a page without elements")
	}
	if _, err := ParseDefinition([]byte("elements: [unclosed"), "bad.yaml"); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadCheckFile_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/c/empty.yaml", []byte("page: p.yaml\n"), 0o644)
	_ = afero.WriteFile(fs, "/c/anon.yaml", []byte("checks:\n  - {expected: 1}\n"), 0o644)

	for _, path := range []string{"/c/empty.yaml", "/c/anon.yaml", "/c/missing.yaml"} {
		if _, err := LoadCheckFile(fs, path); err == nil {
			t.Errorf("LoadCheckFile(%s) should fail", path)
		}
	}
}
