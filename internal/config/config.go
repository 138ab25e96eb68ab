package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/apex/log"
	golocale "github.com/jeandeaual/go-locale"
	"gopkg.in/yaml.v3"
)

const (
	// AppDir is the directory under the user config dir that holds ptui files
	AppDir = "ptui"
	// FileName is the canonical config file
	FileName = "ptui.yaml"
	// LegacyFileName is read once and migrated to FileName
	LegacyFileName = "ptui.json"

	DefaultLocale = "en"
)

// Converter names accepted by converter.selected
const (
	ConverterChafa      = "chafa"
	ConverterJp2a       = "jp2a"
	ConverterGraphical  = "graphical"
	ConverterHalfblocks = "halfblocks"
)

// ConverterNames lists every converter in Tab cycling order.
var ConverterNames = []string{ConverterChafa, ConverterJp2a, ConverterGraphical, ConverterHalfblocks}

type ChafaConfig struct {
	Format string `yaml:"format"`
	Colors string `yaml:"colors"`
}

type Jp2aConfig struct {
	Colors bool `yaml:"colors"`
	Invert bool `yaml:"invert"`
	// Dither is accepted for compatibility; jp2a has no dithering option.
	Dither string `yaml:"dither"`
	Chars  string `yaml:"chars,omitempty"`
}

type GraphicalConfig struct {
	FilterType   string `yaml:"filter_type"`
	MaxDimension int    `yaml:"max_dimension"`
	// AutoResize derives the max dimension from the terminal size.
	AutoResize bool `yaml:"auto_resize"`
}

type HalfblocksConfig struct {
	// PaletteSize limits the colours used; 0 means unlimited.
	PaletteSize int  `yaml:"palette_size"`
	Dither      bool `yaml:"dither"`
}

type ConverterConfig struct {
	Chafa      ChafaConfig      `yaml:"chafa"`
	Jp2a       Jp2aConfig       `yaml:"jp2a"`
	Graphical  GraphicalConfig  `yaml:"graphical"`
	Halfblocks HalfblocksConfig `yaml:"halfblocks"`
	Selected   string           `yaml:"selected"`
}

type TransitionConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Effect          string `yaml:"effect"`
	FrameDurationMS int    `yaml:"frame_duration_ms"`
}

// FrameDuration returns the per-frame duration of a transition
func (t TransitionConfig) FrameDuration() time.Duration {
	return time.Duration(t.FrameDurationMS) * time.Millisecond
}

// Config is the on-disk ptui configuration.
type Config struct {
	Converter        ConverterConfig  `yaml:"converter"`
	Locale           string           `yaml:"locale"`
	SlideshowDelayMS int              `yaml:"slideshow_delay_ms"`
	Transitions      TransitionConfig `yaml:"slideshow_transitions"`
	ASCIIPatterns    []string         `yaml:"ascii_patterns"`
	TextHighlight    bool             `yaml:"text_highlight"`

	// Chafa is the pre-converter-block location of the chafa options.
	Chafa *ChafaConfig `yaml:"chafa,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Converter: ConverterConfig{
			Chafa: ChafaConfig{Format: "ansi", Colors: "full"},
			Jp2a:  Jp2aConfig{Colors: true, Dither: "none"},
			Graphical: GraphicalConfig{
				FilterType:   "lanczos3",
				MaxDimension: 384,
				AutoResize:   true,
			},
			Selected: ConverterChafa,
		},
		Locale:           DefaultLocale,
		SlideshowDelayMS: 2000,
		Transitions: TransitionConfig{
			Effect:          "scattering",
			FrameDurationMS: 50,
		},
		ASCIIPatterns: []string{"*.ascii"},
	}
}

// Dir returns the ptui directory inside base
func Dir(base string) string {
	return filepath.Join(base, AppDir)
}

// Path returns the canonical config file path inside base
func Path(base string) string {
	return filepath.Join(Dir(base), FileName)
}

// SlideshowDelay returns the auto-advance interval
func (c *Config) SlideshowDelay() time.Duration {
	return time.Duration(c.SlideshowDelayMS) * time.Millisecond
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.ASCIIPatterns = slices.Clone(c.ASCIIPatterns)
	if c.Chafa != nil {
		chafa := *c.Chafa
		out.Chafa = &chafa
	}
	return &out
}

// detectLanguage is replaced in tests.
var detectLanguage = golocale.GetLanguage

// EffectiveLocale returns the configured locale, or the OS language when unset.
func (c *Config) EffectiveLocale() string {
	if c.Locale != "" {
		return c.Locale
	}
	lang, err := detectLanguage()
	if err != nil || lang == "" {
		return DefaultLocale
	}
	return lang
}

// Validate checks the settings that would otherwise fail later at render time.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}
	if !slices.Contains(ConverterNames, c.Converter.Selected) {
		return fmt.Errorf("unknown converter: %s", c.Converter.Selected)
	}
	if !c.Converter.Graphical.AutoResize && c.Converter.Graphical.MaxDimension <= 0 {
		return fmt.Errorf("graphical.max_dimension must be > 0 when auto_resize is false")
	}
	if c.SlideshowDelayMS < 0 {
		return fmt.Errorf("slideshow_delay_ms must be >= 0")
	}
	if c.Transitions.FrameDurationMS < 0 {
		return fmt.Errorf("frame_duration_ms must be >= 0")
	}
	if c.Converter.Halfblocks.PaletteSize < 0 {
		return fmt.Errorf("halfblocks.palette_size must be >= 0")
	}
	return nil
}

// migrate moves legacy fields into their current place and reports whether
// anything changed.
func (c *Config) migrate() bool {
	if c.Chafa == nil {
		return false
	}
	c.Converter.Chafa = *c.Chafa
	c.Chafa = nil
	return true
}

// Parse decodes YAML (or JSON) over the defaults so unset fields keep their
// default values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

// Read loads a single config file and applies legacy migration in memory.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.migrate()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Load returns the configuration stored under base. A missing file is
// created with defaults, a legacy ptui.json is converted to ptui.yaml, and a
// file that cannot be parsed yields the defaults together with the error.
func Load(base string) (*Config, error) {
	path := Path(base)
	legacy := filepath.Join(Dir(base), LegacyFileName)

	source := path
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if _, err := os.Stat(legacy); err != nil {
			cfg := Default()
			if err := Save(cfg, path); err != nil {
				return cfg, err
			}
			log.WithField("path", path).Info("created default config file")
			return cfg, nil
		}
		source = legacy
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return Default(), fmt.Errorf("error reading config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Default(), err
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.migrate() || source != path {
		if err := Save(cfg, path); err != nil {
			log.WithError(err).Warn("failed to persist migrated config")
		} else {
			log.WithFields(log.Fields{"from": source, "to": path}).Info("migrated config")
		}
	}

	log.WithField("path", source).Debug("loaded config")
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
