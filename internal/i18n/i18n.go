// Package i18n looks up user-facing strings in the embedded locale catalogs.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/apex/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is used for unknown locales and for keys a catalog lacks.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

var supported = []language.Tag{
	language.English,
	language.German,
	language.Spanish,
	language.French,
}

var helpKeys = []string{
	"keys_navigation",
	"keys_page_navigation",
	"keys_jump_navigation",
	"keys_home_end_navigation",
	"keys_sort",
	"keys_enter_directory",
	"keys_backspace_parent_dir",
	"keys_resize_window",
	"keys_refresh_image",
	"keys_save_ascii",
	"keys_delete_file",
	"keys_open_in_browser",
	"keys_converter",
	"keys_slideshow",
	"keys_text_scroll",
	"keys_help_toggle",
	"keys_quit",
}

var (
	loadOnce sync.Once
	cat      *catalog.Builder
	known    map[string]struct{}
	matcher  = language.NewMatcher(supported)
)

// loadCatalog parses every embedded locale into one catalog. Keys missing
// from a translation are filled from the default locale.
func loadCatalog() {
	cat = catalog.NewBuilder(catalog.Fallback(language.English))
	known = map[string]struct{}{}

	tables := make(map[language.Tag]map[string]string, len(supported))
	for _, tag := range supported {
		name := path.Join("locales", tag.String()+".yaml")
		data, err := localeFS.ReadFile(name)
		if err != nil {
			log.WithError(err).WithField("locale", tag.String()).Error("missing locale catalog")
			continue
		}
		table := map[string]string{}
		if err := yaml.Unmarshal(data, &table); err != nil {
			log.WithError(err).WithField("locale", tag.String()).Error("invalid locale catalog")
			continue
		}
		tables[tag] = table
	}

	base := tables[language.English]
	for key := range base {
		known[key] = struct{}{}
	}
	for _, tag := range supported {
		table := tables[tag]
		for key, fallback := range base {
			msg, ok := table[key]
			if !ok {
				msg = fallback
			}
			if err := cat.SetString(tag, key, msg); err != nil {
				log.WithError(err).WithField("key", key).Warn("failed to add message")
			}
		}
	}
}

// Localizer resolves message keys for one locale.
type Localizer struct {
	locale  string
	printer *message.Printer
}

// New returns a Localizer for locale, which may be a BCP 47 tag or a POSIX
// name such as de_DE.UTF-8. Unsupported locales get English.
func New(locale string) *Localizer {
	loadOnce.Do(loadCatalog)

	tag := Match(locale)
	return &Localizer{
		locale:  tag.String(),
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// Match maps a locale name to the closest supported language.
func Match(locale string) language.Tag {
	locale, _, _ = strings.Cut(locale, ".")
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

// Locale returns the resolved language code, e.g. "de".
func (l *Localizer) Locale() string {
	return l.locale
}

// Get returns the message for key, or key itself when no catalog has it.
func (l *Localizer) Get(key string) string {
	if _, ok := known[key]; !ok {
		return key
	}
	return l.printer.Sprintf(key)
}

// Getf formats the message for key with args.
func (l *Localizer) Getf(key string, args ...any) string {
	if _, ok := known[key]; !ok {
		return strings.TrimSpace(key + " " + fmt.Sprintln(args...))
	}
	return l.printer.Sprintf(key, args...)
}

// HelpText is the key reference shown by the ? toggle.
func (l *Localizer) HelpText() string {
	lines := make([]string, 0, len(helpKeys)+2)
	lines = append(lines, l.Get("select_image_to_preview"), "")
	for _, key := range helpKeys {
		lines = append(lines, l.Get(key))
	}
	return strings.Join(lines, "\n")
}
