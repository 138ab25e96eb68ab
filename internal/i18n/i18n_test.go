package i18n

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"en", "en"},
		{"de", "de"},
		{"de_DE.UTF-8", "de"},
		{"es-MX", "es"},
		{"fr_CA", "fr"},
		{"", "en"},
		{"invalid_locale", "en"},
		{"ja", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.locale).Locale())
		})
	}
}

func TestGet(t *testing.T) {
	en := New("en")
	msg := en.Get("select_image_to_preview")
	assert.NotEmpty(t, msg)
	assert.NotEqual(t, "select_image_to_preview", msg)

	assert.Equal(t, "nonexistent_key", en.Get("nonexistent_key"))

	de := New("de")
	assert.Equal(t, "Verzeichnis ausgewählt", de.Get("directory_selected"))

	fallback := New("invalid_locale")
	assert.Equal(t, en.Get("directory_selected"), fallback.Get("directory_selected"))
}

func TestGetf(t *testing.T) {
	en := New("en")
	assert.Equal(t, "Delete 'cat.jpg'?", en.Getf("delete_file_prompt", "cat.jpg"))
	assert.Equal(t, "Image 2 of 7", en.Getf("slideshow_image", 2, 7))
	assert.Equal(t, "Converter switched to: jp2a", en.Getf("converter_switched", "jp2a"))
	assert.Equal(t, "Konverter gewechselt zu: jp2a", New("de").Getf("converter_switched", "jp2a"))
	assert.Equal(t, "missing_key a", en.Getf("missing_key", "a"))
}

func TestHelpText(t *testing.T) {
	l := New("en")
	help := l.HelpText()

	assert.Contains(t, help, l.Get("keys_navigation"))
	assert.Contains(t, help, l.Get("keys_quit"))
	assert.Contains(t, help, l.Get("keys_help_toggle"))
	assert.Contains(t, help, "u: Scroll text up")
	assert.Contains(t, help, "Space: Scroll text down")
	assert.GreaterOrEqual(t, len(strings.Split(help, "\n")), 10)
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	read := func(name string) map[string]string {
		data, err := localeFS.ReadFile("locales/" + name + ".yaml")
		require.NoError(t, err)
		m := map[string]string{}
		require.NoError(t, yaml.Unmarshal(data, &m))
		return m
	}
	en := read("en")
	for _, name := range []string{"de", "es", "fr"} {
		other := read(name)
		for key := range en {
			assert.Contains(t, other, key, "%s is missing %s", name, key)
		}
		assert.Len(t, other, len(en), name)
	}
}
