// Package i18n serves the API's user-facing messages in Spanish and English.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

//go:embed *.json
var locales embed.FS

const defaultLang = "es"

// SupportedLanguages lists the locales shipped with the binary
var SupportedLanguages = []string{"es", "en"}

// Messages holds one language, keyed by dotted path ("pdf.render_failed")
type Messages map[string]string

type catalog map[string]Messages

// current is replaced as a whole by Load and never mutated afterwards
var current atomic.Pointer[catalog]

// Load parses the embedded locale files. Every supported language must be present.
func Load() error {
	c, err := parseCatalog(locales)
	if err != nil {
		return err
	}
	for _, lang := range SupportedLanguages {
		if _, ok := c[lang]; !ok {
			return fmt.Errorf("missing locale file %s.json", lang)
		}
	}
	current.Store(&c)
	return nil
}

func parseCatalog(fsys fs.FS) (catalog, error) {
	files, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list locales: %w", err)
	}

	c := make(catalog, len(files))
	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", file, err)
		}
		var tree map[string]interface{}
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", file, err)
		}

		msgs := make(Messages)
		if err := collect("", tree, msgs); err != nil {
			return nil, fmt.Errorf("locale %s: %w", file, err)
		}
		lang := strings.TrimSuffix(path.Base(file), ".json")
		c[lang] = msgs
		log.Debug().Str("locale", lang).Int("keys", len(msgs)).Msg("Loaded locale")
	}
	return c, nil
}

// collect walks the JSON tree into dotted keys. Leaves must be strings.
func collect(prefix string, node map[string]interface{}, into Messages) error {
	for name, value := range node {
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		switch v := value.(type) {
		case string:
			into[key] = v
		case map[string]interface{}:
			if err := collect(key, v, into); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %q is not a string", key)
		}
	}
	return nil
}

// T translates key into the language carried by ctx
func T(ctx context.Context, key string, args ...map[string]interface{}) string {
	return Translate(GetLocale(ctx), key, args...)
}

// Translate looks key up in lang, then in the default language. Unknown keys
// come back unchanged. {name} placeholders are filled from the first args map.
func Translate(lang, key string, args ...map[string]interface{}) string {
	c := current.Load()
	if c == nil {
		return key
	}
	for _, l := range []string{lang, defaultLang} {
		if msg, ok := (*c)[l][key]; ok {
			return interpolate(msg, args)
		}
	}
	return key
}

func interpolate(msg string, args []map[string]interface{}) string {
	if len(args) == 0 || len(args[0]) == 0 {
		return msg
	}
	pairs := make([]string, 0, 2*len(args[0]))
	for name, value := range args[0] {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

type localeKey struct{}

// GetLocale returns the language stored in ctx, or the default one
func GetLocale(ctx context.Context) string {
	if lang, ok := ctx.Value(localeKey{}).(string); ok && lang != "" {
		return lang
	}
	return defaultLang
}

// WithLocale returns a copy of ctx carrying lang
func WithLocale(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, localeKey{}, lang)
}

// IsSupported reports whether lang has an embedded locale file
func IsSupported(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// DefaultLanguage returns the fallback locale
func DefaultLanguage() string {
	return defaultLang
}
