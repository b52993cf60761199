package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/daybook/internal/editor"
	"github.com/starford/daybook/internal/paths"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Journal JournalConfig     `yaml:"journal"`
	Editor  EditorConfig      `yaml:"editor"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	if err := c.Editor.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// JournalConfig locates the journal folder. An empty Path means
// ~/Documents/.JOURNAL; the sub-folder names default to Notes, Images and
// settings.json.
type JournalConfig struct {
	Path         string `yaml:"path"`
	NotesDir     string `yaml:"notes_dir"`
	ImagesDir    string `yaml:"images_dir"`
	SettingsFile string `yaml:"settings_file"`
}

// Validate validates the journal configuration. Sub-folder names must be
// plain names inside the base folder.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.NotesDir, validation.By(plainName)),
		validation.Field(&c.ImagesDir, validation.By(plainName)),
		validation.Field(&c.SettingsFile, validation.By(plainName)),
	)
}

// Layout converts the sub-folder names for paths.Resolve.
func (c *JournalConfig) Layout() paths.Layout {
	return paths.Layout{
		NotesDir:     c.NotesDir,
		ImagesDir:    c.ImagesDir,
		SettingsFile: c.SettingsFile,
	}
}

func plainName(v any) error {
	s, _ := v.(string)
	switch {
	case s == "":
		return nil
	case s == "." || s == "..":
		return fmt.Errorf("must be a folder or file name")
	}
	for _, r := range s {
		if r == '/' || r == '\\' {
			return fmt.Errorf("must not contain path separators")
		}
	}
	return nil
}

// EditorConfig holds the rich-text editor tunables, in points.
type EditorConfig struct {
	DefaultFontSize int `yaml:"default_font_size"`
	SizeStep        int `yaml:"size_step"`
	MinFontSize     int `yaml:"min_font_size"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultFontSize, validation.Required, validation.Min(1), validation.Max(400)),
		validation.Field(&c.SizeStep, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.MinFontSize, validation.Required, validation.Min(1), validation.Max(c.DefaultFontSize)),
	)
}

// Editor converts the section into the editor package's config.
func (c *EditorConfig) Editor() editor.Config {
	return editor.Config{
		DefaultSize: c.DefaultFontSize,
		SizeStep:    c.SizeStep,
		MinSize:     c.MinFontSize,
	}
}

// SQLiteConfig holds SQLite database configuration. An empty Path places the
// catalog at daybook.db inside the journal folder.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Journal: JournalConfig{
			NotesDir:     paths.DefaultNotesDir,
			ImagesDir:    paths.DefaultImagesDir,
			SettingsFile: paths.DefaultSettingsFile,
		},
		Editor: EditorConfig{
			DefaultFontSize: editor.DefaultConfig.DefaultSize,
			SizeStep:        editor.DefaultConfig.SizeStep,
			MinFontSize:     editor.DefaultConfig.MinSize,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
