// Package i18n resolves translation keys for the translate* comparison
// operators. Catalogs are YAML files named <locale>.yaml; nested maps are
// flattened to dotted keys and sequences become list translations.
package i18n

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fr"
	"github.com/go-playground/locales/it"
	"github.com/go-playground/locales/ja"
	"github.com/go-playground/locales/nl"
	"github.com/go-playground/locales/pt"
	ut "github.com/go-playground/universal-translator"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/pagecheck/pkg/core"
)

func supported() []locales.Translator {
	return []locales.Translator{
		en.New(), de.New(), es.New(), fr.New(), it.New(), ja.New(), nl.New(), pt.New(),
	}
}

// Locales lists the locale names a Catalog accepts.
func Locales() []string {
	var names []string
	for _, l := range supported() {
		names = append(names, l.Locale())
	}
	sort.Strings(names)
	return names
}

// Catalog holds translations for a primary locale and a fallback locale.
type Catalog struct {
	mu       sync.RWMutex
	uni      *ut.UniversalTranslator
	locale   string
	fallback string
	lists    map[string]map[string][]string // locale -> key -> items
}

// New creates an empty catalog. An empty fallback means no fallback.
func New(locale, fallback string) (*Catalog, error) {
	uni := ut.New(en.New(), supported()...)
	for _, name := range []string{locale, fallback} {
		if name == "" {
			continue
		}
		if _, found := uni.GetTranslator(name); !found {
			return nil, core.ErrInvalidConfig.WithMessage(
				fmt.Sprintf("unsupported locale %q (supported: %s)", name, strings.Join(Locales(), ", ")))
		}
	}
	if locale == "" {
		return nil, core.ErrInvalidConfig.WithMessage("locale is required")
	}
	return &Catalog{
		uni:      uni,
		locale:   locale,
		fallback: fallback,
		lists:    make(map[string]map[string][]string),
	}, nil
}

// Locale returns the primary locale.
func (c *Catalog) Locale() string {
	return c.locale
}

// Add registers a translation. value is a string or a list of strings.
func (c *Catalog) Add(locale, key string, value any) error {
	trans, found := c.uni.GetTranslator(locale)
	if !found {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported locale %q", locale))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch v := value.(type) {
	case string:
		return trans.Add(key, v, true)
	case []string:
		c.setList(locale, key, v)
		return nil
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprint(item)
		}
		c.setList(locale, key, items)
		return nil
	case nil:
		return fmt.Errorf("translation %s.%s has no value", locale, key)
	default:
		return trans.Add(key, fmt.Sprint(v), true)
	}
}

func (c *Catalog) setList(locale, key string, items []string) {
	if c.lists[locale] == nil {
		c.lists[locale] = make(map[string][]string)
	}
	c.lists[locale][key] = items
}

// Translate returns the translation of key in the primary locale, falling
// back to the fallback locale. Missing keys return core.ErrTranslationMissing.
func (c *Catalog) Translate(key string) (any, error) {
	for _, locale := range []string{c.locale, c.fallback} {
		if locale == "" {
			continue
		}
		if v, ok := c.lookup(locale, key); ok {
			return v, nil
		}
	}
	return nil, core.ErrTranslationMissing.WithMessage(
		fmt.Sprintf("no translation for %q in locale %q", key, c.locale)).
		WithDetails(map[string]interface{}{"key": key, "locale": c.locale})
}

func (c *Catalog) lookup(locale, key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if items, ok := c.lists[locale][key]; ok {
		out := make([]string, len(items))
		copy(out, items)
		return out, true
	}
	trans, found := c.uni.GetTranslator(locale)
	if !found {
		return nil, false
	}
	text, err := trans.T(key)
	if err != nil {
		return nil, false
	}
	return text, true
}

// Load reads a catalog document for locale.
func (c *Catalog) Load(locale string, data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s catalog: %w", locale, err)
	}
	entries := make(map[string]any)
	flatten("", doc, entries)
	for key, value := range entries {
		if err := c.Add(locale, key, value); err != nil {
			return fmt.Errorf("%s catalog: %w", locale, err)
		}
	}
	return nil
}

// LoadDir reads <locale>.yaml for the primary and fallback locales from dir.
// A missing fallback catalog is not an error; a missing primary one is.
func (c *Catalog) LoadDir(fs afero.Fs, dir string) error {
	for _, locale := range []string{c.locale, c.fallback} {
		if locale == "" {
			continue
		}
		path := filepath.Join(dir, locale+".yaml")
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			if locale == c.fallback && locale != c.locale && errors.Is(err, afero.ErrFileNotFound) {
				continue
			}
			return fmt.Errorf("failed to read catalog: %w", err)
		}
		if err := c.Load(locale, data); err != nil {
			return err
		}
	}
	return nil
}

func flatten(prefix string, node map[string]any, out map[string]any) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flatten(key, child, out)
			continue
		}
		out[key] = v
	}
}
