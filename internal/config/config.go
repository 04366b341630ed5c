// Package config loads and validates fishtally configuration from TOML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// DBFileName is the per-project review database, created in the project root.
const DBFileName = "fishtally.sqlite"

// ExportFileName is the CSV export target, written to the project root.
const ExportFileName = "fish_counts_export.csv"

// Paths contains the three roots a project needs.
type Paths struct {
	ProjectRoot      string `toml:"project_root"`
	VideoIndexRoot   string `toml:"video_index_root"`
	VideoLibraryRoot string `toml:"video_library_root"`
}

// Review contains operator-facing review settings.
type Review struct {
	Categories      string   `toml:"categories"`
	VideoExtensions []string `toml:"video_extensions"`
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for fishtally.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Review  Review  `toml:"review"`
	Logging Logging `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Review: Review{
			Categories:      "Chinook,Rainbow,Atlantic,Brown,Coho,Unknown,Non fish",
			VideoExtensions: []string{".mp4"},
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fishtally/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The bool reports
// whether a file was actually found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("fishtally.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// normalize expands and absolutizes paths and fills the root fallback
// chain: video_index_root defaults to project_root, video_library_root to
// video_index_root.
func (c *Config) normalize() error {
	var err error
	if c.Paths.ProjectRoot, err = expandPath(cleanPathValue(c.Paths.ProjectRoot)); err != nil {
		return err
	}
	if c.Paths.VideoIndexRoot, err = expandPath(cleanPathValue(c.Paths.VideoIndexRoot)); err != nil {
		return err
	}
	if c.Paths.VideoLibraryRoot, err = expandPath(cleanPathValue(c.Paths.VideoLibraryRoot)); err != nil {
		return err
	}

	if c.Paths.VideoIndexRoot == "" {
		c.Paths.VideoIndexRoot = c.Paths.ProjectRoot
	}
	if c.Paths.VideoLibraryRoot == "" {
		c.Paths.VideoLibraryRoot = c.Paths.VideoIndexRoot
	}

	if len(c.Review.VideoExtensions) == 0 {
		c.Review.VideoExtensions = []string{".mp4"}
	}
	for i, ext := range c.Review.VideoExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Review.VideoExtensions[i] = ext
	}
	return nil
}

// Validate checks settings that have a closed value set. Whether the
// project root exists is checked at reload time, not here, so commands like
// `config show` work before a project is chosen.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging level: unsupported value %q", c.Logging.Level)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging format: unsupported value %q", c.Logging.Format)
	}
	for _, ext := range c.Review.VideoExtensions {
		if ext == "" || ext == "." {
			return fmt.Errorf("video_extensions: empty extension")
		}
	}
	return nil
}

// Categories returns the species list, trimmed, with the built-in fallback
// when the configured list is empty.
func (c *Config) Categories() []string {
	var out []string
	for _, cat := range strings.Split(c.Review.Categories, ",") {
		if cat = strings.TrimSpace(cat); cat != "" {
			out = append(out, cat)
		}
	}
	if len(out) == 0 {
		return []string{"Chinook", "Rainbow", "Unknown", "Non fish"}
	}
	return out
}

// DBPath returns the review database location for the configured project.
func (c *Config) DBPath() string {
	return filepath.Join(c.Paths.ProjectRoot, DBFileName)
}

// ExportPath returns the CSV export location for the configured project.
func (c *Config) ExportPath() string {
	return filepath.Join(c.Paths.ProjectRoot, ExportFileName)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// cleanPathValue strips whitespace and surrounding quotes; paths pasted
// from a file manager often carry both.
func cleanPathValue(value string) string {
	return strings.Trim(strings.TrimSpace(value), `"`)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
