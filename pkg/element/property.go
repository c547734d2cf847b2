package element

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/devicelab-dev/pagecheck/pkg/core"
)

// Readable properties.
const (
	PropExists      = "exists"
	PropVisible     = "visible"
	PropHidden      = "hidden"
	PropEnabled     = "enabled"
	PropDisabled    = "disabled"
	PropValue       = "value"
	PropCaption     = "caption"
	PropChecked     = "checked"
	PropSelected    = "selected"
	PropHref        = "href"
	PropCount       = "count"
	PropItemCount   = "itemCount"
	PropRowCount    = "rowCount"
	PropColumnCount = "columnCount"
	PropItems       = "items"

	// AttributePrefix reads a raw attribute, e.g. "attribute:aria-label".
	AttributePrefix = "attribute:"
)

// IsPresence reports whether a property turns absence into false instead of an
// error.
func IsPresence(name string) bool {
	switch normalize(name) {
	case "exists", "visible", "hidden":
		return true
	}
	return false
}

func normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

func baseOf(el Element) *base {
	switch e := el.(type) {
	case *Button:
		return &e.base
	case *Link:
		return &e.base
	case *Label:
		return &e.base
	case *TextField:
		return &e.base
	case *Checkbox:
		return &e.base
	case *Radio:
		return &e.base
	case *SelectList:
		return &e.base
	case *List:
		return &e.base
	case *Table:
		return &e.base
	}
	panic(fmt.Sprintf("element: unknown kind %T", el))
}

func isAbsent(err error) bool {
	return errors.Is(err, core.ErrElementNotFound)
}

func invalidProperty(el Element, name string) error {
	return core.ErrInvalidProperty.
		WithMessage(fmt.Sprintf("%s %q has no property %q", el.Kind(), el.DisplayName(), name)).
		WithDetails(map[string]interface{}{"property": name, "kind": el.Kind().String()})
}

// Property reads a named property. Presence properties (exists, visible,
// hidden) never fail for an absent element; every other property returns an
// error matching core.ErrElementNotFound. An unknown property returns
// core.ErrInvalidProperty, an element without a locator
// core.ErrMissingLocator.
func Property(ctx context.Context, el Element, name string) (any, error) {
	if IsPresence(name) {
		if err := baseOf(el).configured(); err != nil {
			return nil, err
		}
	}
	if attr, ok := strings.CutPrefix(name, AttributePrefix); ok {
		if attr == "" {
			return nil, invalidProperty(el, name)
		}
		v, set, err := el.Attribute(ctx, attr)
		if err != nil || !set {
			return nil, err
		}
		return v, nil
	}

	switch normalize(name) {
	case "exists":
		return el.Exists(ctx), nil
	case "visible":
		return el.Visible(ctx), nil
	case "hidden":
		return !el.Visible(ctx), nil
	case "enabled":
		return el.Enabled(ctx)
	case "disabled":
		enabled, err := el.Enabled(ctx)
		return !enabled, err
	}

	switch e := el.(type) {
	case *Button:
		switch normalize(name) {
		case "value", "caption", "text":
			return e.Caption(ctx)
		}
	case *Link:
		switch normalize(name) {
		case "value", "caption", "text":
			return e.Caption(ctx)
		case "href":
			return e.Href(ctx)
		}
	case *Label:
		switch normalize(name) {
		case "value", "caption", "text":
			return e.Caption(ctx)
		}
	case *TextField:
		switch normalize(name) {
		case "value":
			return e.Value(ctx)
		}
	case *Checkbox:
		switch normalize(name) {
		case "value", "checked":
			return e.Checked(ctx)
		}
	case *Radio:
		switch normalize(name) {
		case "value", "checked", "selected":
			return e.Selected(ctx)
		}
	case *SelectList:
		switch normalize(name) {
		case "value", "selected":
			return e.Selected(ctx)
		}
	case *List:
		switch normalize(name) {
		case "value", "items":
			return e.Items(ctx)
		case "count", "itemcount":
			return e.ItemCount(ctx)
		}
	case *Table:
		switch normalize(name) {
		case "count", "rowcount":
			return e.RowCount(ctx)
		case "columncount":
			return e.ColumnCount(ctx)
		}
	}
	return nil, invalidProperty(el, name)
}

// Set writes a value the way the element kind accepts input: text fields
// take text, checkboxes and radios take booleans, select lists take an
// option value, buttons and links are clicked when value is true.
func Set(ctx context.Context, el Element, value any) error {
	switch e := el.(type) {
	case *TextField:
		return e.Set(ctx, fmt.Sprint(value))
	case *Checkbox:
		want, err := asBool(value)
		if err != nil {
			return fmt.Errorf("checkbox %q: %w", e.DisplayName(), err)
		}
		return e.Set(ctx, want)
	case *Radio:
		want, err := asBool(value)
		if err != nil {
			return fmt.Errorf("radio %q: %w", e.DisplayName(), err)
		}
		if !want {
			return nil
		}
		return e.Select(ctx)
	case *SelectList:
		return e.Choose(ctx, fmt.Sprint(value))
	case *Button, *Link:
		click, err := asBool(value)
		if err != nil {
			return fmt.Errorf("%s %q: %w", el.Kind(), el.DisplayName(), err)
		}
		if !click {
			return nil
		}
		return baseOf(el).Click(ctx)
	case *Label, *List, *Table:
		return core.ErrInvalidProperty.WithMessage(
			fmt.Sprintf("%s %q does not accept input", el.Kind(), el.DisplayName()))
	}
	return core.ErrInvalidProperty.WithMessage(fmt.Sprintf("unknown element kind %T", el))
}

func asBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, core.ErrInvalidProperty.WithMessage(fmt.Sprintf("expected a boolean, got %q", b))
		}
		return parsed, nil
	}
	return false, core.ErrInvalidProperty.WithMessage(fmt.Sprintf("expected a boolean, got %T", v))
}
