package static

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"
)

// ParsePageSource parses an HTML document.
func ParsePageSource(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page source: %w", err)
	}
	return doc, nil
}

// LoadPageSource parses the HTML file at path.
func LoadPageSource(fs afero.Fs, path string) (*goquery.Document, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page source: %w", err)
	}
	defer f.Close()
	return ParsePageSource(f)
}

// nodeName returns the lower-case tag name of the first node.
func nodeName(sel *goquery.Selection) string {
	return strings.ToLower(goquery.NodeName(sel))
}

func inputType(sel *goquery.Selection) string {
	return strings.ToLower(sel.AttrOr("type", "text"))
}

func isToggle(sel *goquery.Selection) bool {
	if nodeName(sel) != "input" {
		return false
	}
	t := inputType(sel)
	return t == "checkbox" || t == "radio"
}

// styleHides reports whether an inline style hides the element.
func styleHides(style string) bool {
	for _, decl := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.ToLower(strings.TrimSpace(value))
		if (prop == "display" && value == "none") || (prop == "visibility" && value == "hidden") {
			return true
		}
	}
	return false
}

func hiddenSelf(sel *goquery.Selection) bool {
	if _, ok := sel.Attr("hidden"); ok {
		return true
	}
	if nodeName(sel) == "input" && inputType(sel) == "hidden" {
		return true
	}
	return styleHides(sel.AttrOr("style", ""))
}

// isVisible reports whether neither the node nor an ancestor is hidden by
// markup. Stylesheets are not evaluated.
func isVisible(sel *goquery.Selection) bool {
	if sel.Length() == 0 || hiddenSelf(sel) {
		return false
	}
	visible := true
	sel.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if hiddenSelf(p) {
			visible = false
		}
		return visible
	})
	return visible
}

// isEnabled honors the disabled attribute and disabled fieldsets.
func isEnabled(sel *goquery.Selection) bool {
	if _, ok := sel.Attr("disabled"); ok {
		return false
	}
	return sel.ParentsFiltered("fieldset[disabled]").Length() == 0
}

// text returns the text content with whitespace collapsed, the way a
// browser renders it.
func text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return text(opt)
}

// selectedOption returns the chosen option of a select, or its first option
// when none is marked selected.
func selectedOption(sel *goquery.Selection) *goquery.Selection {
	selected := sel.Find("option[selected]").First()
	if selected.Length() > 0 {
		return selected
	}
	return sel.Find("option").First()
}

// value returns the form value of a node.
func value(sel *goquery.Selection) string {
	switch nodeName(sel) {
	case "input", "button":
		if isToggle(sel) {
			return sel.AttrOr("value", "on")
		}
		return sel.AttrOr("value", "")
	case "textarea":
		return sel.Text()
	case "option":
		return optionValue(sel)
	case "select":
		opt := selectedOption(sel)
		if opt.Length() == 0 {
			return ""
		}
		return optionValue(opt)
	}
	return sel.AttrOr("value", "")
}

// checked reports the toggle state of checkboxes, radios and options.
func checked(sel *goquery.Selection) bool {
	attr := "checked"
	if nodeName(sel) == "option" {
		attr = "selected"
	}
	_, ok := sel.Attr(attr)
	return ok
}
